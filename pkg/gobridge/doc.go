/*
Package gobridge provisions Go compiler toolchains on demand and exposes a
narrow, deterministic interface for fetching dependencies and building a
single executable from one or more source entry points.

A toolchain is installed by downloading the official distribution archive
for a platform/architecture pair and extracting it into an install
directory. The returned Toolchain handle binds the installed binary, an
isolated workspace tree and a composed process environment, so builds do
not depend on a preinstalled toolchain or on the ambient GOPATH.
*/
package gobridge
