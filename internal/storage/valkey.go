package storage

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"
)

// ValkeyKeyPrefix namespaces every key written by the valkey backend.
const ValkeyKeyPrefix = "taskcal:"

// Valkey stores records as plain string values on a Valkey server.
type Valkey struct {
	client valkey.Client
}

// NewValkey connects to the Valkey server at addr.
func NewValkey(addr, password string) (*Valkey, error) {
	if addr == "" {
		return nil, fmt.Errorf("valkey URL is required for the valkey backend")
	}
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
		Password:    password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}
	return &Valkey{client: client}, nil
}

func (v *Valkey) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := v.client.Do(ctx, v.client.B().Get().Key(ValkeyKeyPrefix+key).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return b, nil
}

func (v *Valkey) Put(ctx context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	cmd := v.client.B().Set().Key(ValkeyKeyPrefix + key).Value(valkey.BinaryString(value)).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (v *Valkey) Delete(ctx context.Context, key string) error {
	if err := v.client.Do(ctx, v.client.B().Del().Key(ValkeyKeyPrefix+key).Build()).Error(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (v *Valkey) Name() string { return TypeValkey }

func (v *Valkey) Close() error {
	v.client.Close()
	return nil
}
