// Package registry holds the static table of model configurations offered to
// the user: each model's default sampling temperature and its max-tokens
// ceiling. It also owns the parameter reset rule applied when the selected
// model changes.
package registry
