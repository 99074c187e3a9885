package main

import "fmt"

// runDiag prints each value in diagnostic notation, one per line.
func runDiag(inv *invocation) error {
	data, err := readInput(inv)
	if err != nil {
		return err
	}
	values, err := readValues(data, inv.Slurp)
	if err != nil {
		return err
	}
	for _, v := range values {
		if _, err := fmt.Fprintln(inv.Stdout, v); err != nil {
			return err
		}
	}
	return nil
}
