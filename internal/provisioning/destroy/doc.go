// Package destroy tears down what the apply phase provisioned.
//
// The plan is rebuilt from the units exactly as for apply and handed to the
// context's applier, which must also implement backend.Destroyer. Resources
// are removed in reverse plan order.
package destroy
