// Package tokens holds the read-only token metadata table used to resolve
// order addresses into display names and decimal precision.
package tokens

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrMissingColumn = errors.New("token table missing required column")
	ErrUnknownToken  = errors.New("unknown token")
	ErrAmbiguousName = errors.New("token name matches more than one address")
)

var requiredColumns = []string{"address", "name", "decimals"}

type TokenInfo struct {
	Address  string `json:"address"` // lowercase 0x-prefixed hex
	Name     string `json:"name"`
	Decimals int32  `json:"decimals"`
}

// Registry is an immutable snapshot of the token table. It is safe to share
// between goroutines.
type Registry struct {
	sorted     []TokenInfo
	byAddress  map[string]TokenInfo
	byName     map[string][]string
	duplicates int
}

func LoadCSV(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	reg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Parse reads a CSV table with a header row. Only address, name and decimals
// are used; other columns are ignored.
func Parse(r io.Reader) (*Registry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	var rows []TokenInfo
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ti, err := parseRow(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, ti)
	}
	return New(rows), nil
}

func parseRow(rec []string, idx map[string]int) (TokenInfo, error) {
	field := func(col string) string {
		i := idx[col]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	addr := field("address")
	if !common.IsHexAddress(addr) {
		return TokenInfo{}, fmt.Errorf("invalid address %q", addr)
	}
	// Some exports write decimals as floats ("18.0").
	dec, err := strconv.ParseFloat(field("decimals"), 64)
	if err != nil || dec < 0 || dec != float64(int32(dec)) {
		return TokenInfo{}, fmt.Errorf("invalid decimals %q for %s", field("decimals"), addr)
	}
	return TokenInfo{
		Address:  NormalizeAddress(addr),
		Name:     field("name"),
		Decimals: int32(dec),
	}, nil
}

// New builds a registry from already-validated rows. Rows sharing an address
// are collapsed onto the first occurrence.
func New(rows []TokenInfo) *Registry {
	r := &Registry{
		byAddress: make(map[string]TokenInfo, len(rows)),
		byName:    map[string][]string{},
	}
	for _, ti := range rows {
		ti.Address = NormalizeAddress(ti.Address)
		if _, ok := r.byAddress[ti.Address]; ok {
			r.duplicates++
			continue
		}
		r.byAddress[ti.Address] = ti
		r.byName[ti.Name] = append(r.byName[ti.Name], ti.Address)
		r.sorted = append(r.sorted, ti)
	}
	slices.SortStableFunc(r.sorted, func(a, b TokenInfo) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Address, b.Address)
	})
	return r
}

// Tokens returns the table sorted by name.
func (r *Registry) Tokens() []TokenInfo { return slices.Clone(r.sorted) }

func (r *Registry) Len() int        { return len(r.sorted) }
func (r *Registry) Duplicates() int { return r.duplicates }

func (r *Registry) Lookup(address string) (TokenInfo, bool) {
	ti, ok := r.byAddress[NormalizeAddress(address)]
	return ti, ok
}

// FindAddressByName resolves a display name to its address. Names shared by
// several tokens are reported rather than resolved arbitrarily.
func (r *Registry) FindAddressByName(name string) (string, error) {
	addrs := r.byName[name]
	switch len(addrs) {
	case 0:
		return "", fmt.Errorf("%w: %q", ErrUnknownToken, name)
	case 1:
		return addrs[0], nil
	default:
		return "", fmt.Errorf("%w: %q (%s)", ErrAmbiguousName, name, strings.Join(addrs, ", "))
	}
}

// NormalizeAddress lowercases a hex address. Invalid input is returned
// lowercased and trimmed so lookups simply miss.
func NormalizeAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
