package service

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/TakenPilot/cloudflare-workers/internal/repository"
	"github.com/TakenPilot/cloudflare-workers/internal/utils"
)

const (
	KeyMinSize     = 10
	KeyMaxSize     = 500
	ValueMaxSize   = 500
	IDMinSize      = 10
	IDMaxSize      = 500
	PoliciesNumMax = 1000
)

var (
	keyPattern    = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	originPattern = regexp.MustCompile(`^https?://[a-zA-Z0-9-]+(\.[a-zA-Z0-9-]+)*(:[0-9]+)?$`)
)

type ApiKeyConfig struct {
	AllowedOrigins []string
	AuthKeys       []string
	HashedAuthKeys []string
}

type ApiKeyService struct {
	keys           repository.ApiKeyRepository
	allowedOrigins []string
	authKeys       []string
	hashedAuthKeys []string
}

// NewApiKeyService drops malformed origins and non-alphanumeric auth keys from config.
func NewApiKeyService(keys repository.ApiKeyRepository, config ApiKeyConfig) *ApiKeyService {
	s := &ApiKeyService{keys: keys}
	for _, origin := range config.AllowedOrigins {
		if IsOrigin(origin) {
			s.allowedOrigins = append(s.allowedOrigins, origin)
		}
	}
	for _, key := range config.AuthKeys {
		if isAlphaNumeric(key) {
			s.authKeys = append(s.authKeys, key)
		}
	}
	for _, hash := range config.HashedAuthKeys {
		if hash = strings.TrimSpace(hash); hash != "" {
			s.hashedAuthKeys = append(s.hashedAuthKeys, hash)
		}
	}
	return s
}

func (s *ApiKeyService) AllowsOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range s.allowedOrigins {
		if allowed == origin {
			return true
		}
	}
	return false
}

func (s *ApiKeyService) Authorizes(authorization string) bool {
	if authorization == "" {
		return false
	}
	for _, key := range s.authKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(authorization)) == 1 {
			return true
		}
	}
	for _, hash := range s.hashedAuthKeys {
		if ok, err := utils.VerifySecret(hash, authorization); err == nil && ok {
			return true
		}
	}
	return false
}

func (s *ApiKeyService) Get(ctx context.Context, key string) ([]byte, error) {
	if !IsValidKey(key) {
		return nil, ErrInvalidKey
	}
	value, err := s.keys.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load api key: %w", err)
	}
	if len(value) == 0 {
		return nil, ErrApiKeyNotFound
	}
	return value, nil
}

// Put validates body as an ApiKeyInfo record, forces its key field to key,
// and stores it. Fields beyond the known ones are preserved.
func (s *ApiKeyService) Put(ctx context.Context, key string, contentType string, body []byte) error {
	if !IsValidKey(key) {
		return ErrInvalidKey
	}
	if strings.TrimSpace(contentType) != "application/json" {
		return ErrInvalidContentType
	}
	if len(body) > ValueMaxSize {
		return ErrBodyTooLarge
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return ErrInvalidJSON
	}
	if decoder.More() {
		return ErrInvalidJSON
	}

	record, ok := value.(map[string]any)
	if !ok {
		if _, isArray := value.([]any); isArray {
			return ErrInvalidApiKeyInfo
		}
		return ErrInvalidObject
	}
	record["key"] = key
	if !IsApiKeyInfo(record) {
		return ErrInvalidApiKeyInfo
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode api key: %w", err)
	}
	if err := s.keys.Put(ctx, key, encoded); err != nil {
		return fmt.Errorf("store api key: %w", err)
	}
	return nil
}

func (s *ApiKeyService) Delete(ctx context.Context, key string) error {
	if !IsValidKey(key) {
		return ErrInvalidKey
	}
	if err := s.keys.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	return nil
}

func IsValidKey(key string) bool {
	return len(key) >= KeyMinSize && len(key) <= KeyMaxSize && isAlphaNumeric(key)
}

func IsOrigin(origin string) bool {
	return originPattern.MatchString(origin)
}

// ParseAllowedOrigins splits a comma separated list and keeps well-formed origins.
func ParseAllowedOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if IsOrigin(origin) {
			origins = append(origins, origin)
		}
	}
	return origins
}

func IsApiKeyInfo(record map[string]any) bool {
	if !isBoundedID(record["key"]) || !isBoundedID(record["tenantId"]) {
		return false
	}
	if _, ok := record["expires"].(json.Number); !ok {
		return false
	}
	policies, ok := record["policies"].([]any)
	if !ok || len(policies) >= PoliciesNumMax {
		return false
	}
	for _, policy := range policies {
		if !isApiKeyPolicy(policy) {
			return false
		}
	}
	return true
}

func isApiKeyPolicy(value any) bool {
	policy, ok := value.(map[string]any)
	if !ok || !isBoundedID(policy["name"]) {
		return false
	}
	config, present := policy["config"]
	if !present {
		return false
	}
	// null, arrays and objects are accepted
	switch config.(type) {
	case nil, map[string]any, []any:
		return true
	}
	return false
}

func isBoundedID(value any) bool {
	id, ok := value.(string)
	return ok && len(id) > IDMinSize && len(id) < IDMaxSize
}

func isAlphaNumeric(value string) bool {
	return keyPattern.MatchString(value)
}
