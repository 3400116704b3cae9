// Package catalog holds the declarative endpoint descriptors for the
// platform's private web APIs. Descriptors are configuration data: URL,
// HTTP method, documented parameters and auth requirements. They are
// embedded from JSON files under data/ and never change at runtime.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/waiav123/bilibili-api/pkg/errors"
)

//go:embed data/*.json
var dataFS embed.FS

// Endpoint 接口描述符
type Endpoint struct {
	// URL 请求地址
	URL string `json:"url"`
	// Method 请求方式 GET/POST/PUT
	Method string `json:"method"`
	// Verify 是否需要登录态 (SESSDATA)
	Verify bool `json:"verify"`
	// CSRF 是否需要 csrf 口令 (bili_jct)
	CSRF bool `json:"csrf"`
	// WBI 是否需要 wbi 签名 (wts + w_rid)
	WBI bool `json:"wbi"`
	// Params 参数说明, 仅文档用途
	Params map[string]string `json:"params"`
	// Comment 接口说明
	Comment string `json:"comment"`
}

var (
	loadOnce sync.Once
	loadErr  error
	registry map[string]map[string]Endpoint
)

// load parses every embedded namespace file once. A descriptor entry is an
// object carrying a "url" key; any other object is a one-level group whose
// children are addressed as "group.name".
func load() {
	registry = make(map[string]map[string]Endpoint)

	entries, err := dataFS.ReadDir("data")
	if err != nil {
		loadErr = fmt.Errorf("read embedded catalog: %w", err)
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		raw, err := dataFS.ReadFile("data/" + name)
		if err != nil {
			loadErr = fmt.Errorf("read %s: %w", name, err)
			return
		}

		var top map[string]json.RawMessage
		if err := json.Unmarshal(raw, &top); err != nil {
			loadErr = fmt.Errorf("parse %s: %w", name, err)
			return
		}

		ns := strings.TrimSuffix(name, ".json")
		eps := make(map[string]Endpoint)
		for key, msg := range top {
			if isDescriptor(msg) {
				ep, err := decodeEndpoint(msg)
				if err != nil {
					loadErr = fmt.Errorf("%s.%s: %w", ns, key, err)
					return
				}
				eps[key] = ep
				continue
			}

			var group map[string]json.RawMessage
			if err := json.Unmarshal(msg, &group); err != nil {
				loadErr = fmt.Errorf("%s.%s: %w", ns, key, err)
				return
			}
			for sub, submsg := range group {
				ep, err := decodeEndpoint(submsg)
				if err != nil {
					loadErr = fmt.Errorf("%s.%s.%s: %w", ns, key, sub, err)
					return
				}
				eps[key+"."+sub] = ep
			}
		}
		registry[ns] = eps
	}
}

func isDescriptor(msg json.RawMessage) bool {
	var probe struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(msg, &probe); err != nil {
		return false
	}
	return probe.URL != ""
}

func decodeEndpoint(msg json.RawMessage) (Endpoint, error) {
	var ep Endpoint
	if err := json.Unmarshal(msg, &ep); err != nil {
		return Endpoint{}, err
	}
	if ep.Method == "" {
		return Endpoint{}, fmt.Errorf("descriptor missing method")
	}
	return ep, nil
}

// Get returns the descriptor addressed by namespace and name. Names inside a
// group are addressed as "group.name".
func Get(namespace, name string) (Endpoint, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return Endpoint{}, errors.Wrap(loadErr, errors.ErrCodeCatalogNotFound, "Catalog data unavailable", 0)
	}

	eps, ok := registry[namespace]
	if !ok {
		return Endpoint{}, errors.New(errors.ErrCodeCatalogNotFound,
			fmt.Sprintf("Unknown catalog namespace %q", namespace), 0)
	}
	ep, ok := eps[name]
	if !ok {
		return Endpoint{}, errors.New(errors.ErrCodeCatalogNotFound,
			fmt.Sprintf("Unknown endpoint %q in namespace %q", name, namespace), 0)
	}

	// Copy the params map so callers cannot mutate the registry.
	if ep.Params != nil {
		params := make(map[string]string, len(ep.Params))
		for k, v := range ep.Params {
			params[k] = v
		}
		ep.Params = params
	}
	return ep, nil
}

// MustGet is Get for descriptors that ship in the binary; it panics on a
// missing entry, which is always a programming error.
func MustGet(namespace, name string) Endpoint {
	ep, err := Get(namespace, name)
	if err != nil {
		panic(err)
	}
	return ep
}

// Namespaces returns the sorted namespace list.
func Namespaces() []string {
	loadOnce.Do(load)
	out := make([]string, 0, len(registry))
	for ns := range registry {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Names returns the sorted endpoint names of one namespace.
func Names(namespace string) []string {
	loadOnce.Do(load)
	eps, ok := registry[namespace]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(eps))
	for name := range eps {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
