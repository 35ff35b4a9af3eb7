//go:build !race

package provider

func passwordHashCost() int {
	return 14
}
