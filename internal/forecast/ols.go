package forecast

import (
	"gonum.org/v1/gonum/mat"
)

// rankTolerance is the singular value ratio below which a design matrix is
// treated as rank deficient.
const rankTolerance = 1e-10

// solveOLS returns the least-squares coefficients of y on x. Rank deficient
// or ill-conditioned systems return a *NumericInstabilityError.
func solveOLS(op string, x *mat.Dense, y *mat.VecDense) (*mat.VecDense, error) {
	_, cols := x.Dims()

	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDNone) {
		return nil, &NumericInstabilityError{Op: op, Detail: "svd did not converge"}
	}
	if rank := svd.Rank(rankTolerance); rank < cols {
		return nil, &NumericInstabilityError{Op: op, Detail: "rank deficient design matrix"}
	}

	var qr mat.QR
	qr.Factorize(x)
	beta := mat.NewVecDense(cols, nil)
	if err := qr.SolveVecTo(beta, false, y); err != nil {
		return nil, &NumericInstabilityError{Op: op, Detail: err.Error()}
	}
	return beta, nil
}
