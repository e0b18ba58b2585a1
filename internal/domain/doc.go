// Package domain holds the value types shared by every layer of tierd: models, tiers,
// thinking modes, priorities and the error taxonomy. It has no dependencies on the rest
// of the module.
package domain
