package sdk

import "strings"

type AddressDomain string

const (
	AddressDomainUser     AddressDomain = "user"
	AddressDomainContract AddressDomain = "contract"
	AddressDomainSystem   AddressDomain = "system"
)

// Address is a bech32-style account or contract address as handed over by the host.
type Address string

// String returns the literal representation (like cosmos1xyz) of the address.
func (a Address) String() string {
	return string(a)
}

// Domain checks the prefix to tell user, contract and system addresses apart.
// Example payload: sdk.Address("contract:dao-core").Domain()
func (a Address) Domain() AddressDomain {
	if strings.HasPrefix(a.String(), "system:") {
		return AddressDomainSystem
	}
	if strings.HasPrefix(a.String(), "contract:") {
		return AddressDomainContract
	}
	return AddressDomainUser
}

// IsValid is a light sanity check, the host already validated the checksum.
// Example payload: sdk.Address("juno1abc").IsValid()
func (a Address) IsValid() bool {
	s := a.String()
	if s == "" || len(s) > 128 {
		return false
	}
	return !strings.ContainsAny(s, " \t\r\n|")
}
