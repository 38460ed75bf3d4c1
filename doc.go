/*
Package docmerge merges insurance policy data into word-processing form templates.

A template carries named content controls (placeholders). Each placeholder's
identifier is either a dotted path into the policy ("Insured.Name") or a
directive ("_IfBound", "_Premium.GL", "_Coverages") that decides what the
control shows, whether it stays at all, or how many table rows it becomes.
Forms whose grouped questions do not fit on one page are replicated into
several instances, appended with page breaks and restarted numbering.

# Pipeline

For each form of a batch the engine:

  - clones the template and applies the default and per-form field maps
  - inserts the carrier signature and the QUOTE or SPECIMEN watermark
  - dispatches every placeholder to its directive handler
  - grows row schedules for grouped questions without a row limit
  - replicates the form across instances and updates footers and layout
  - exports the result in every configured format

A failure inside one form is recorded on its FormResult and the batch moves
on. Storage failures abort the batch.

# Usage

	eng, err := docmerge.New(
		docmerge.WithStorage(memory.NewStorage()),
		docmerge.WithFormats(domain.FormatPDF, domain.FormatDOCX),
	)
	if err != nil {
		log.Fatal(err)
	}

	results, err := eng.Generate(ctx, policy, docmerge.Form{ID: "DEC", Template: tpl})
	if err != nil {
		log.Fatal(err)
	}
	for _, r := range results {
		if r.Failed() {
			log.Printf("%s: %v", r.FormID, r.Errors)
		}
	}

Templates are ports.Document values. The memory adapter is a complete
reference implementation; file.LoadTemplate builds one from a YAML
description.
*/
package docmerge
