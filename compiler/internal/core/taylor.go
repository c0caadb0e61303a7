package core

import "math"

// EncodedCoeffs holds the hardware machine-unit encoding of one SBG's
// frequency or amplitude polynomial, per SPEC_FULL.md §6:
//
//	F_i = round(dif/dti * (2^32/250) * (2^(2S+5)/250)^i)
//
// and similarly for A_i using the amplitude full-scale convention.
type EncodedCoeffs struct {
	Values   [4]int64
	ScaleExp int
}

// EncodeFreqCoeffs converts physical-unit frequency polynomial coefficients
// (F0 in MHz, matching the 250 MHz clock in the formula above, and its time
// derivatives) to machine units at the given hardware scale exponent S.
func EncodeFreqCoeffs(coeffs [4]float64, scaleExp int) EncodedCoeffs {
	return encodeTaylor(coeffs, scaleExp)
}

// EncodeAmpCoeffs converts physical-unit (full-scale fraction) amplitude
// polynomial coefficients using the same Taylor encoding convention.
func EncodeAmpCoeffs(coeffs [4]float64, scaleExp int) EncodedCoeffs {
	return encodeTaylor(coeffs, scaleExp)
}

func encodeTaylor(coeffs [4]float64, scaleExp int) EncodedCoeffs {
	const base = 250.0
	scaleFactor := math.Pow(2, float64(2*scaleExp+5)) / base
	var out EncodedCoeffs
	out.ScaleExp = scaleExp
	for i, c := range coeffs {
		v := c * (math.Pow(2, 32) / base) * math.Pow(scaleFactor, float64(i))
		out.Values[i] = int64(math.Round(v))
	}
	return out
}
