// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - SourceCatalog: Paginated listing of Source folders and videos
//   - TargetLibrary: Folder and video operations on the Target platform
//   - MappingStore: Durable Source to Target video identity
//   - FolderCache: Run-scoped Source to Target folder identity
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RunStore: Run history. Without it, reports are returned but not kept.
//   - ConfigWatcher: Config change notifications for the scheduler.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
