/*
Package domain contains the core domain models of the docmerge engine.

It defines the policy data graph that templates are merged against, the question
grouping model used by repeating forms, and the result records produced by a
generation pass. This package is kept pure and free of I/O, following the same
hexagonal split as the rest of the module: collaborators live behind pkg/ports.

# Key Entities

  - Policy: read-only snapshot of a policy (lines of business, risk units, documents).
  - Question: an answer that may belong to a repeating row group on a form.
  - FieldMap: translation from template placeholder names to directive identifiers.
  - FormResult: the per-form outcome of a batch ({formId, generatedFileName, pageCount, errors}).
*/
package domain
