package dao

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Artifact is a compiled contract: full ABI plus creation bytecode.
// The step deployer loads these from the build output directory; the
// factory path never needs them.
type Artifact struct {
	Name     string
	ABI      abi.ABI
	Bytecode []byte
}

// rawArtifact accepts both solc/hardhat ("bytecode": "0x...") and
// forge ("bytecode": {"object": "0x..."}) artifact shapes.
type rawArtifact struct {
	ABI      json.RawMessage `json:"abi"`
	Bytecode json.RawMessage `json:"bytecode"`
}

func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var raw rawArtifact
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse artifact %s: %w", path, err)
	}
	if len(raw.ABI) == 0 {
		return nil, fmt.Errorf("artifact %s has no abi", path)
	}
	parsed, err := abi.JSON(strings.NewReader(string(raw.ABI)))
	if err != nil {
		return nil, fmt.Errorf("parse abi in %s: %w", path, err)
	}
	code, err := decodeBytecode(raw.Bytecode)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), ".json")
	return &Artifact{Name: name, ABI: parsed, Bytecode: code}, nil
}

func decodeBytecode(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing bytecode")
	}
	var hexStr string
	if err := json.Unmarshal(raw, &hexStr); err != nil {
		var obj struct {
			Object string `json:"object"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil || obj.Object == "" {
			return nil, fmt.Errorf("unrecognized bytecode encoding")
		}
		hexStr = obj.Object
	}
	code, err := hex.DecodeString(strings.TrimPrefix(hexStr, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode bytecode: %w", err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("empty bytecode")
	}
	return code, nil
}

// ArtifactSet resolves artifacts by contract name from a directory,
// caching parsed results.
type ArtifactSet struct {
	dir string

	mu    sync.Mutex
	cache map[string]*Artifact
}

func NewArtifactSet(dir string) *ArtifactSet {
	return &ArtifactSet{dir: dir, cache: make(map[string]*Artifact)}
}

func (s *ArtifactSet) Get(name string) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.cache[name]; ok {
		return a, nil
	}
	a, err := LoadArtifact(filepath.Join(s.dir, name+".json"))
	if err != nil {
		return nil, err
	}
	s.cache[name] = a
	return a, nil
}
