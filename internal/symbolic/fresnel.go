package symbolic

import (
	"math/big"
	"math/cmplx"
)

// Fresnel integrals S(z), C(z) (normalized, sin/cos(pi t^2 / 2) convention)
// for complex arguments. The Maclaurin series converges everywhere but
// cancels catastrophically for large |z| in float64, so past a cutoff the
// terms are summed in big.Float with precision scaled to the cancellation.

// 200 decimal digits; enough for the precision range used below.
const piDigits = "3.14159265358979323846264338327950288419716939937510" +
	"58209749445923078164062862089986280348253421170679" +
	"82148086513282306647093844609550582231725359408128" +
	"48111745028410270193852110555964462294895493038196"

const fresnelFloat64Cutoff = 15.0 // on |m| = (pi/2)|z|^2

func fresnelS(z complex128) complex128 { return fresnelSeries(z, true) }
func fresnelC(z complex128) complex128 { return fresnelSeries(z, false) }

func fresnelSeries(z complex128, odd bool) complex128 {
	if z == 0 {
		return 0
	}
	m := complex(Pi.value/2, 0) * z * z
	if cmplx.Abs(m) <= fresnelFloat64Cutoff {
		return z * fresnelSum64(m, odd)
	}
	return z * fresnelSumBig(z, odd)
}

// fresnelSum64 evaluates sum_n (-1)^n m^(2n+e)/((2n+e)! (4n+2e+1)) with
// e=1 for S and e=0 for C, in float64 complex arithmetic.
func fresnelSum64(m complex128, odd bool) complex128 {
	var t, sum complex128
	if odd {
		t = m
	} else {
		t = 1
	}
	m2 := m * m
	for n := 0; n < 300; n++ {
		var denom float64
		if odd {
			denom = float64(4*n + 3)
		} else {
			denom = float64(4*n + 1)
		}
		contrib := t / complex(denom, 0)
		sum += contrib
		if cmplx.Abs(contrib) < 1e-18*(1+cmplx.Abs(sum)) {
			break
		}
		if odd {
			t *= -m2 / complex(float64((2*n+2)*(2*n+3)), 0)
		} else {
			t *= -m2 / complex(float64((2*n+1)*(2*n+2)), 0)
		}
	}
	return sum
}

// bigCx is a complex number with big.Float parts, used only by the
// extended-precision Fresnel fallback.
type bigCx struct{ re, im *big.Float }

func newBigCx(prec uint, z complex128) *bigCx {
	return &bigCx{
		re: new(big.Float).SetPrec(prec).SetFloat64(real(z)),
		im: new(big.Float).SetPrec(prec).SetFloat64(imag(z)),
	}
}

func (a *bigCx) mul(b *bigCx) *bigCx {
	prec := a.re.Prec()
	ac := new(big.Float).SetPrec(prec).Mul(a.re, b.re)
	bd := new(big.Float).SetPrec(prec).Mul(a.im, b.im)
	ad := new(big.Float).SetPrec(prec).Mul(a.re, b.im)
	bc := new(big.Float).SetPrec(prec).Mul(a.im, b.re)
	return &bigCx{
		re: ac.Sub(ac, bd),
		im: ad.Add(ad, bc),
	}
}

func (a *bigCx) add(b *bigCx) *bigCx {
	prec := a.re.Prec()
	return &bigCx{
		re: new(big.Float).SetPrec(prec).Add(a.re, b.re),
		im: new(big.Float).SetPrec(prec).Add(a.im, b.im),
	}
}

func (a *bigCx) quoInt(k int64) *bigCx {
	prec := a.re.Prec()
	d := new(big.Float).SetPrec(prec).SetInt64(k)
	return &bigCx{
		re: new(big.Float).SetPrec(prec).Quo(a.re, d),
		im: new(big.Float).SetPrec(prec).Quo(a.im, d),
	}
}

func (a *bigCx) mulFloat(f *big.Float) *bigCx {
	prec := a.re.Prec()
	return &bigCx{
		re: new(big.Float).SetPrec(prec).Mul(a.re, f),
		im: new(big.Float).SetPrec(prec).Mul(a.im, f),
	}
}

func (a *bigCx) neg() *bigCx {
	return &bigCx{re: new(big.Float).Neg(a.re), im: new(big.Float).Neg(a.im)}
}

func (a *bigCx) mag() float64 {
	re, _ := a.re.Float64()
	im, _ := a.im.Float64()
	if re < 0 {
		re = -re
	}
	if im < 0 {
		im = -im
	}
	if re > im {
		return re
	}
	return im
}

func (a *bigCx) complex128() complex128 {
	re, _ := a.re.Float64()
	im, _ := a.im.Float64()
	return complex(re, im)
}

func fresnelSumBig(z complex128, odd bool) complex128 {
	am := Pi.value / 2 * cmplx.Abs(z) * cmplx.Abs(z)
	prec := uint(128 + int(3*am))
	if prec > 600 {
		prec = 600 // bounded by the stored pi digits; far past model range
	}

	zb := newBigCx(prec, z)
	piHalf := new(big.Float).SetPrec(prec).Quo(bigPi(prec), big.NewFloat(2))
	mb := zb.mul(zb).mulFloat(piHalf)
	m2 := mb.mul(mb)

	var t *bigCx
	if odd {
		t = mb
	} else {
		t = newBigCx(prec, 1)
	}
	sum := newBigCx(prec, 0)
	limit := int(3*am) + 120
	for n := 0; n < limit; n++ {
		var denom int64
		if odd {
			denom = int64(4*n + 3)
		} else {
			denom = int64(4*n + 1)
		}
		contrib := t.quoInt(denom)
		sum = sum.add(contrib)
		if n > int(am) && contrib.mag() < 1e-25*(1+sum.mag()) {
			break
		}
		if odd {
			t = t.mul(m2).quoInt(int64((2*n + 2) * (2*n + 3))).neg()
		} else {
			t = t.mul(m2).quoInt(int64((2*n + 1) * (2*n + 2))).neg()
		}
	}
	return sum.complex128()
}

// bigPi returns pi at the given precision (capped by the stored digits).
func bigPi(prec uint) *big.Float {
	f, _, err := big.ParseFloat(piDigits, 10, prec, big.ToNearestEven)
	if err != nil {
		panic("symbolic: bad pi constant")
	}
	return f
}
