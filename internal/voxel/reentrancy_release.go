//go:build !debugreentrancy

package voxel

// checkReentrancy is a no-op in production builds; see reentrancy_debug.go
// for the -tags debugreentrancy variant.
func (g *Grid) checkReentrancy() {}
