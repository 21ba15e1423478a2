//go:build !race

package newsletter

func passwordHashCost() int {
	return 14
}
