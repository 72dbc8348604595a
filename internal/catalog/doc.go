// Package catalog manages gate configuration.
//
// The Service validates and normalizes gate codes and door lists before
// they reach storage. A gate requires 2-6 doors, unique within the gate
// after normalization. Replacing a gate's doors always discards any
// in-flight sequence progress for that gate.
package catalog
