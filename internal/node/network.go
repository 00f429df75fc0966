package node

// Network is a shared ANT network key slot. Number is assigned when the
// network is installed into a Node slot via SetNetworkKey.
type Network struct {
	Key    [8]byte
	Name   string
	Number uint8
}
