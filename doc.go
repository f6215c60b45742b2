package lottieschema

// Package lottieschema validates Lottie animation documents against the
// Lottie JSON Schema.
//
// - Schema augmentation (package augment): documentation anchors, discriminator tables and unknown property sets
// - Custom keywords (package predicates) evaluated by a collect-all engine (package eval)
// - A stable finding model (severity, code, JSON Pointer, display message, breadcrumbs, docs link)
// - Duplicate-key and depth enforcement while decoding
//
// Design policy:
// - Keep only public APIs in the root package; put decoding details under internal/.
// - Place the schema model under jsonschema/ and the CLI under cmd/lottie-validate.
// - A Validator is built once and shared; Validate never panics on user input.
//
// Typical usage:
//
//  s, err := lottieschema.DefaultSchema()
//  v, err := lottieschema.New(s, lottieschema.DefaultOptions())
//  findings := v.Validate(data)
//  if findings.HasErrors() { ... }
//
