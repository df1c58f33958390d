package pipeline

import "github.com/rotisserie/eris"

// ErrInvalidRequest means the request carried no identifying field at all;
// planning is rejected before any retrieval happens.
var ErrInvalidRequest = eris.New("pipeline: request has no identifying fields")

// ErrInsufficientEvidence means aggregation produced no usable sources.
// Fatal for company runs; person runs degrade to a thin report only when at
// least one source survived.
var ErrInsufficientEvidence = eris.New("pipeline: no usable evidence sources after aggregation")
