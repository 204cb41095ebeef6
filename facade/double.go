// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package facade

import "math"

func doubleBits(f float64) uint64     { return math.Float64bits(f) }
func doubleFromBits(u uint64) float64 { return math.Float64frombits(u) }
