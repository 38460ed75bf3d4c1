/*
Package ports defines the driven ports (interfaces) for the docmerge engine.

These interfaces keep the merge engine independent from the word-processing library,
the storage backend and the data services that feed it. The engine only ever calls
the narrow operations declared here.

# Key Interfaces

  - Document / Table: the word-processing primitives (get/replace placeholder, clone, save).
  - Storage: persists exported bytes and returns where they went.
  - FieldMapSource: fetches default and per-form field-mapping tables.
  - ReferenceSource: loads process-wide reference data (carriers, states).
*/
package ports
