// Package fit trains FSRS-6 parameter vectors from a single deck's
// review logs, satisfying the meld.Optimizer interface.
//
// Training uses mini-batch gradient descent with the Adam optimizer
// and a cosine annealing learning rate. Gradients come from numerical
// central differences on binary cross-entropy loss over cross-day
// reviews; each card's history is replayed through the FSRS-6 memory
// model to predict retrievability at review time.
//
//	f := fit.New(fit.Config{})
//	params, err := f.Optimize(ctx, logs)
//
// Fitting is a pure function of the review logs: it reads no host
// state and is deterministic for identical input, so it pairs with
// meld.NopGuard and may run concurrently across decks.
package fit
