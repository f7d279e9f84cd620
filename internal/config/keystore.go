// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides terminal settings and their persistence.
package config

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/nacl/secretbox"
)

// =============================================================================
// API KEY STORE
// =============================================================================

// ErrNoKey is returned by Key when no API key has been stored.
var ErrNoKey = errors.New("no API key stored")

// KeyStore persists the provider API key sealed at rest.
//
// The key is encrypted with a machine-local sealing key (NaCl secretbox)
// generated on first use. Both files are written with owner-only
// permissions. This protects against casual file disclosure, not against
// an attacker with the user's local account.
type KeyStore struct {
	path     string // sealed API key
	sealPath string // sealing key material
}

// NewKeyStore creates a key store under the given directory.
func NewKeyStore(dir string) (*KeyStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}
	return &KeyStore{
		path:     filepath.Join(dir, "apikey.sealed"),
		sealPath: filepath.Join(dir, "seal.key"),
	}, nil
}

// HasKey reports whether an API key is stored.
func (ks *KeyStore) HasKey() bool {
	_, err := os.Stat(ks.path)
	return err == nil
}

// SetKey seals and stores the API key.
func (ks *KeyStore) SetKey(key string) error {
	seal, err := ks.sealingKey()
	if err != nil {
		return err
	}

	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("seal API key: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(key), &nonce, seal)
	if err := os.WriteFile(ks.path, sealed, 0600); err != nil {
		return fmt.Errorf("write API key: %w", err)
	}
	return nil
}

// Key unseals and returns the stored API key.
func (ks *KeyStore) Key() (string, error) {
	sealed, err := os.ReadFile(ks.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoKey
	}
	if err != nil {
		return "", fmt.Errorf("read API key: %w", err)
	}
	if len(sealed) < 24 {
		return "", errors.New("stored API key is corrupt")
	}

	seal, err := ks.sealingKey()
	if err != nil {
		return "", err
	}

	var nonce [24]byte
	copy(nonce[:], sealed[:24])
	plain, ok := secretbox.Open(nil, sealed[24:], &nonce, seal)
	if !ok {
		return "", errors.New("stored API key is corrupt")
	}
	return string(plain), nil
}

// RemoveKey deletes the stored API key.
func (ks *KeyStore) RemoveKey() error {
	if err := os.Remove(ks.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove API key: %w", err)
	}
	return nil
}

// sealingKey loads the sealing key material, generating it on first use.
func (ks *KeyStore) sealingKey() (*[32]byte, error) {
	var key [32]byte

	data, err := os.ReadFile(ks.sealPath)
	if err == nil && len(data) == 32 {
		copy(key[:], data)
		return &key, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read sealing key: %w", err)
	}

	if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
		return nil, fmt.Errorf("generate sealing key: %w", err)
	}
	if err := os.WriteFile(ks.sealPath, key[:], 0600); err != nil {
		return nil, fmt.Errorf("write sealing key: %w", err)
	}
	return &key, nil
}
