package addresses

import (
	"regexp"
	"strings"
)

// AddressFormat names a recognized on-chain address encoding.
type AddressFormat string

const (
	FormatEthereum      AddressFormat = "ethereum"
	FormatBitcoinLegacy AddressFormat = "bitcoin_legacy"
	FormatBitcoinBech32 AddressFormat = "bitcoin_bech32"
	FormatHex           AddressFormat = "hex"
	FormatUnknown       AddressFormat = "unknown"
)

var (
	ethereumPattern      = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	bitcoinLegacyPattern = regexp.MustCompile(`^[13][a-km-zA-HJ-NP-Z1-9]{25,34}$`)
	bitcoinBech32Pattern = regexp.MustCompile(`^bc1[a-z0-9]{39,59}$`)
	hexPattern           = regexp.MustCompile(`^[a-fA-F0-9]+$`)
)

// DetectFormat classifies an address value by its encoding.
func DetectFormat(value string) AddressFormat {
	switch {
	case ethereumPattern.MatchString(value):
		return FormatEthereum
	case bitcoinLegacyPattern.MatchString(value):
		return FormatBitcoinLegacy
	case bitcoinBech32Pattern.MatchString(value):
		return FormatBitcoinBech32
	case hexPattern.MatchString(value):
		return FormatHex
	default:
		return FormatUnknown
	}
}

// compatibleWithNetwork applies coarse encoding rules by network name.
// Unrecognized formats pass so new networks are not blocked by the table.
func compatibleWithNetwork(format AddressFormat, networkName string) bool {
	name := strings.ToLower(networkName)
	switch format {
	case FormatEthereum:
		return strings.Contains(name, "ethereum") ||
			strings.Contains(name, "bsc") ||
			strings.Contains(name, "polygon")
	case FormatBitcoinLegacy, FormatBitcoinBech32:
		return strings.Contains(name, "bitcoin")
	default:
		return true
	}
}
