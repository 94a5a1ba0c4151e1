// Package prompts holds the instructions sent to the classification and
// decision models.
//
// Default prompt text is Go code: templates use fmt.Sprintf interpolation
// and are checked by tests. Operators can replace any prompt with the
// contents of a file named in config.yaml; wording is configuration, the
// program only depends on the interpolation points.
package prompts
