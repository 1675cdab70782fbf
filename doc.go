// Package meld ranks decks by the statistical distance between their
// fitted FSRS parameter vectors and advises which decks are close
// enough to share a single scheduling preset.
//
// meld obtains a parameter vector per deck (via the meld/fit
// subpackage or any other Optimizer), estimates a covariance model
// across the fitted vectors, and computes pairwise Mahalanobis
// distances (meld/mahala). The result is a Report listing, for every
// deck, its neighbors in ascending distance order and whether each
// pair falls under the merge-candidate threshold.
//
// Basic usage:
//
//	col, err := ankihost.Open("collection.anki2")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer col.Close()
//
//	adv, err := meld.NewAdvisor(col, fit.New(fit.Config{}), nil, meld.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report, err := adv.Run(context.Background())
package meld
