// Package internal contains the core implementation packages for Lucid.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the lucid tool.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - paths: base-path detection for subpath static hosts, path resolution
//   - aliasmap: idempotent import-alias map rewriting against the base path
//   - templates: remote template fragment loading, caching, and cloning
//   - runtime: component definitions, element lifecycle, and bootstrap
//   - registry: component registry and event broadcasting
//   - renderer: page mounting and rendering through the runtime
//   - components: the built-in lc-* component definitions
//   - bus: scoped publish/subscribe event delivery
//   - styles: document-level stylesheet injection with deduplication
//   - dom: HTML document model shared by the runtime and tooling
//   - audit: page reference auditing and path rewriting
//   - server: development server with live reload and component preview
//   - watcher: file system monitoring with debouncing
//   - config: configuration management
//   - errors: structured error types for the runtime's failure taxonomy
//   - logging: structured logging on log/slog
//
// # Inter-Package Communication
//
// The runtime packages communicate through the Services bundle built by
// runtime.Bootstrap, which fixes the startup order: base-path detection,
// alias-map rewriting, then template and style services. The registry
// acts as the hub for component definitions, and the renderer mounts
// pages by walking the document for registered tags.
package internal
