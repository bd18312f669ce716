// Package domain contains the core business entities for docchat.
// Types here have no dependencies on adapters or external services;
// they are shared between ports, services and tests.
package domain
