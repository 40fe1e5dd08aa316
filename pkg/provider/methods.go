package provider

import "sort"

// defaultWriteMethods are the remote procedures that need the user's wallet:
// anything that signs, reveals accounts or changes wallet state.
var defaultWriteMethods = []string{
	"eth_sendTransaction",
	"eth_signTransaction",
	"eth_sign",
	"personal_sign",
	"eth_signTypedData",
	"eth_signTypedData_v3",
	"eth_signTypedData_v4",
	"eth_requestAccounts",
	"eth_accounts",
	"wallet_switchEthereumChain",
	"wallet_addEthereumChain",
	"wallet_watchAsset",
	"wallet_requestPermissions",
}

// DefaultWriteMethods returns a copy of the method names routed to the write
// transport when no explicit set is configured.
func DefaultWriteMethods() []string {
	out := make([]string, len(defaultWriteMethods))
	copy(out, defaultWriteMethods)
	return out
}

// methodSet is an immutable set of method names. It is only read after
// construction, so sharing it between goroutines needs no locking.
type methodSet map[string]struct{}

func newMethodSet(methods []string) methodSet {
	s := make(methodSet, len(methods))
	for _, m := range methods {
		s[m] = struct{}{}
	}
	return s
}

func (s methodSet) has(method string) bool {
	_, ok := s[method]
	return ok
}

func (s methodSet) list() []string {
	out := make([]string, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
