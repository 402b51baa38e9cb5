package lmg

import (
	"strconv"
	"strings"
)

/*
Bitstring renders outcome index i of an n-qubit register as the string of
measured qubit values, qubit 0 first. It is the n-bit binary form of i,
reversed.
*/
func Bitstring(i, n int) string {
	bin := strconv.FormatInt(int64(i), 2)
	if len(bin) < n {
		bin = strings.Repeat("0", n-len(bin)) + bin
	}

	out := []byte(bin)
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return string(out)
}

// Bitstrings lists the labels of all 2^n outcomes in index order.
func Bitstrings(n int) []string {
	labels := make([]string, 1<<n)
	for i := range labels {
		labels[i] = Bitstring(i, n)
	}
	return labels
}
