// Package mfa coordinates multi-factor authentication management: enabling
// and disabling factors, authenticator enrollment, and recovery code
// regeneration. The email factor acts as the master switch; the authenticator
// factor can only be enabled on top of it.
package mfa
