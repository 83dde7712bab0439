// Package keygen generates SSH key pairs for the admin login of the VMs
// hubnet declares.
//
// Private keys are PEM encoded in the OpenSSH format. Public keys are single
// authorized_keys lines, the form HUBNET_ADMIN_SSH_KEY expects.
package keygen
