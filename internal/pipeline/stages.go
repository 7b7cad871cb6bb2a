package pipeline

import (
	"github.com/utsmok/ea-cli/internal/ingest"
	"github.com/utsmok/ea-cli/internal/schema"
	"github.com/utsmok/ea-cli/internal/sheetwriter"
)

// =============================================================================
// SOURCE STAGES
// =============================================================================

// readExportStage selects the newest export and reads it.
type readExportStage struct{ deps *Deps }

func (s *readExportStage) Name() string { return "read CopyRight export" }

func (s *readExportStage) Run(rc *RunContext) error {
	export, err := ingest.SelectExport(s.deps.Config.ExportDir)
	if err != nil {
		return err
	}
	s.deps.Log.Info("selected newest export %s (modified %s)", export.Path, export.Date.Format(schema.DateLayout))

	table, err := ingest.ReadExport(export.Path, s.deps.Config.CSVSettings)
	if err != nil {
		return err
	}

	rc.SourceFile = export.Path
	rc.SourceDate = export.Date
	rc.Raw = table
	return nil
}

// normalizeStage turns the raw export into schema records.
type normalizeStage struct{ deps *Deps }

func (s *normalizeStage) Name() string { return "normalize export" }

func (s *normalizeStage) Run(rc *RunContext) error {
	rc.Current = s.deps.Normalizer.Normalize(rc.Raw, rc.SourceDate)
	return nil
}

// readOtherSheetStage uses an alternate sheet as the source.
type readOtherSheetStage struct{ deps *Deps }

func (s *readOtherSheetStage) Name() string { return "read other sheet" }

func (s *readOtherSheetStage) Run(rc *RunContext) error {
	sheet, err := ingest.ReadOtherSheet(rc.Options.OtherSheet, s.deps.Mapper, s.deps.Log)
	if err != nil {
		return err
	}
	rc.SourceFile = rc.Options.OtherSheet
	rc.SourceDate = sheet.Date
	rc.Current = sheet.Records
	return nil
}

// =============================================================================
// RECONCILIATION STAGE
// =============================================================================

// reconcileStage decides which records need to be written.
type reconcileStage struct{ deps *Deps }

func (s *reconcileStage) Name() string { return "reconcile with existing sheets" }

func (s *reconcileStage) Run(rc *RunContext) error {
	if !rc.Options.OnlyChanges {
		s.deps.Log.Info("change detection disabled, adding all %d item(s)", len(rc.Current))
		rc.Reconciled = rc.Current
		rc.NewlySeen = len(rc.Current)
	} else {
		previous, err := s.deps.Reader.ReadAll(s.deps.Config.FacultiesDir)
		if err != nil {
			return err
		}
		rc.CategorySheets = previous
		rc.Previous = previous.Records

		result := s.deps.Engine.Reconcile(rc.Current, rc.Previous)
		rc.Reconciled = result.Records
		rc.NewlySeen = result.NewlySeen
		rc.Changed = result.Changed
		rc.NoNewItems = result.NoNewItems
	}

	if len(rc.Reconciled) == 0 {
		rc.NoNewItems = true
	}
	rc.Categories = sheetwriter.Categories(rc.Reconciled)
	return nil
}

// =============================================================================
// OUTPUT STAGES
// =============================================================================

// writeCategorySheetsStage writes one review sheet per category.
type writeCategorySheetsStage struct{ deps *Deps }

func (s *writeCategorySheetsStage) Name() string { return "write category sheets" }

func (s *writeCategorySheetsStage) Run(rc *RunContext) error {
	if rc.NoNewItems {
		s.deps.Log.Info("no new items, no category sheets written")
		return nil
	}
	artifacts, err := s.deps.Writer.WriteCategories(rc.Reconciled, rc.Categories, rc.SourceDate)
	rc.Artifacts = append(rc.Artifacts, artifacts...)
	return err
}

// writeAllItemsStage writes the consolidated sheet.
type writeAllItemsStage struct{ deps *Deps }

func (s *writeAllItemsStage) Name() string { return "write all items sheet" }

func (s *writeAllItemsStage) Run(rc *RunContext) error {
	if rc.NoNewItems {
		s.deps.Log.Info("no new items, all items sheet skipped")
		return nil
	}
	artifact, err := s.deps.Writer.WriteAllItems(rc.Reconciled, rc.SourceDate)
	if err != nil {
		return err
	}
	rc.Artifacts = append(rc.Artifacts, artifact)
	return nil
}

// =============================================================================
// EXPORT STAGES
// =============================================================================

// readCategorySheetsStage reads the reviewed category sheets back in.
type readCategorySheetsStage struct{ deps *Deps }

func (s *readCategorySheetsStage) Name() string { return "read category sheets" }

func (s *readCategorySheetsStage) Run(rc *RunContext) error {
	if rc.CategorySheets != nil {
		return nil
	}
	result, err := s.deps.Reader.ReadAll(s.deps.Config.FacultiesDir)
	if err != nil {
		return err
	}
	rc.CategorySheets = result
	return nil
}

// createImportSheetStage would turn the reviewed records into a CopyRight
// import sheet. The CopyRight import format has not been defined, so this
// stage only reports what it collected.
type createImportSheetStage struct{ deps *Deps }

func (s *createImportSheetStage) Name() string { return "create import sheet" }

func (s *createImportSheetStage) Run(rc *RunContext) error {
	collected := 0
	if rc.CategorySheets != nil {
		collected = len(rc.CategorySheets.Records)
	}
	s.deps.Log.Warn("the CopyRight import format is not defined yet; %d reviewed item(s) collected, nothing written to %s",
		collected, s.deps.Config.ImportDir)
	return nil
}
