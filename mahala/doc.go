// Package mahala computes covariance-scaled (Mahalanobis) distances
// between FSRS parameter vectors.
//
// A [Model] holds the inverse covariance of a vector population,
// estimated from the vectors themselves with [NewModel] or supplied by
// the caller from a reference population. When the sample covariance
// cannot be inverted (too few vectors, or a singular matrix even after
// ridge regularization), the model degrades to the identity and
// distances reduce to Euclidean; the degradation is reported through
// [Model.Degraded], never silently.
package mahala
