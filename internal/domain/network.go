package domain

// Network identifies the chain a token lives on.
type Network string

// Supported networks.
const (
	NetworkEthereum Network = "ethereum"
	NetworkBSC      Network = "bsc"
	NetworkBase     Network = "base"
	NetworkPolygon  Network = "polygon"
	NetworkSolana   Network = "solana"
)

// AllNetworks lists every supported network.
var AllNetworks = []Network{
	NetworkEthereum,
	NetworkBSC,
	NetworkBase,
	NetworkPolygon,
	NetworkSolana,
}

// Valid reports whether n is a known network.
func (n Network) Valid() bool {
	switch n {
	case NetworkEthereum, NetworkBSC, NetworkBase, NetworkPolygon, NetworkSolana:
		return true
	}
	return false
}

// IsEVM reports whether the network uses EVM-style hex addresses.
func (n Network) IsEVM() bool {
	return n != NetworkSolana && n.Valid()
}
