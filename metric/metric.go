// Package metric defines how a kernel's raw inner product is turned into a
// distance that ranks ascending ("smaller is closer") for every metric.
package metric

import (
	"fmt"
	"strings"
)

// Type is the distance metric of an index.
type Type uint8

const (
	// L2 is squared Euclidean distance.
	L2 Type = iota
	// IP is inner product; larger products are closer.
	IP
)

func (t Type) String() string {
	switch t {
	case L2:
		return "L2"
	case IP:
		return "IP"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// Valid reports whether t is a known metric.
func (t Type) Valid() bool {
	return t == L2 || t == IP
}

// ParseType parses "l2", "euclidean", "ip", "dot" or "inner_product" (case-insensitive).
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "l2", "euclidean":
		return L2, nil
	case "ip", "dot", "inner_product":
		return IP, nil
	default:
		return 0, fmt.Errorf("metric: unknown type %q", s)
	}
}

// Distance converts an inner product into an ascending distance.
// L2 expands ‖q-x‖² as ‖q‖² + ‖x‖² - 2<q,x>; IP negates the product.
func (t Type) Distance(ip, queryNormSq, codeNormSq float32) float32 {
	if t == IP {
		return -ip
	}
	d := queryNormSq + codeNormSq - 2*ip
	if d < 0 {
		// Quantization error can push tiny distances below zero.
		return 0
	}
	return d
}
