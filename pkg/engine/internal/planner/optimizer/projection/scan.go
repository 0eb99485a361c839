package projection

import (
	"github.com/go-kit/log/level"

	"github.com/grafana/lazyframe/pkg/engine/internal/planner/logical"
	"github.com/grafana/lazyframe/pkg/engine/internal/schema"
)

func (p *pushdown) processDataFrameScan(ir *logical.DataFrameScan, ctx projectionContext) (logical.IR, error) {
	if ctx.inner.isCountStar {
		ctx.processCountStarAtScan(ir.Schema, p.ea)
	}
	if ctx.hasPushedDown() {
		out, err := updateScanSchema(p.ea, ctx.accProjections, ir.Schema, false)
		if err != nil {
			return nil, err
		}
		ir.OutputSchema = out
		p.notePruned("dataframe", ir.Name, ir.Schema, out)
	}
	return ir, nil
}

func (p *pushdown) processPythonScan(ir *logical.PythonScan, ctx projectionContext) (logical.IR, error) {
	if ctx.inner.isCountStar {
		ctx.processCountStarAtScan(ir.Schema, p.ea)
	}

	ir.WithColumns = getScanColumns(p.ea, ctx.accProjections, nil, "", ir.Schema)
	if ir.WithColumns == nil {
		ir.OutputSchema = nil
		return ir, nil
	}

	out, err := updateScanSchema(p.ea, ctx.accProjections, ir.Schema, true)
	if err != nil {
		return nil, err
	}
	ir.OutputSchema = out
	p.notePruned("python", ir.Name, ir.Schema, out)
	return ir, nil
}

func (p *pushdown) processScan(ir *logical.Scan, ctx projectionContext) (logical.IR, error) {
	if !ir.ScanType.CanProjectColumns() {
		// The reader always produces every column.
		if len(ctx.accProjections) == 0 {
			return ir, nil
		}
		return p.wrapSimpleProjection(ir, ctx.names(p.ea))
	}

	fileSchema := ir.FileInfo.Schema
	if ctx.inner.isCountStar {
		ctx.processCountStarAtScan(fileSchema, p.ea)
	}

	ir.Args.Projection = getScanColumns(p.ea, ctx.accProjections, ir.Args.RowIndex, ir.Args.IncludeFilePaths, nil)
	if ir.Args.Projection == nil {
		ir.OutputSchema = nil
	} else {
		out, err := updateScanSchema(p.ea, ctx.accProjections, fileSchema, ir.ScanType.SortProjection(ir.Args.RowIndex != nil))
		if err != nil {
			return nil, err
		}
		if col := ir.Args.IncludeFilePaths; col != "" {
			// The file path column always comes last.
			if i, ok := out.IndexOf(col); ok {
				f, _ := out.ShiftRemoveIndex(i)
				out.WithColumn(f.Name, f.Type)
			}
		}
		ir.OutputSchema = out
	}

	// Generated columns no longer produced are removed from the file schema
	// too, so that positions computed against it stay consistent.
	if ri := ir.Args.RowIndex; ri != nil && ir.OutputSchema != nil && !ir.OutputSchema.Contains(ri.Name) {
		ir.FileInfo.Schema = ir.FileInfo.Schema.Clone()
		ir.FileInfo.Schema.ShiftRemove(ri.Name)
		ir.Args.RowIndex = nil
	}
	if col := ir.Args.IncludeFilePaths; col != "" && ir.OutputSchema != nil && !ir.OutputSchema.Contains(col) {
		ir.FileInfo.Schema = ir.FileInfo.Schema.Clone()
		ir.FileInfo.Schema.ShiftRemove(col)
		ir.Args.IncludeFilePaths = ""
	}

	if ir.OutputSchema != nil {
		p.notePruned(ir.ScanType.Format.String(), firstSource(ir.Sources), fileSchema, ir.OutputSchema)
	}
	return ir, nil
}

// notePruned logs and counts the columns a scan no longer produces.
func (p *pushdown) notePruned(kind, name string, full, out *schema.Schema) {
	pruned := full.Len() - out.Len()
	if pruned <= 0 {
		return
	}
	if p.opts.ColumnsPruned != nil {
		p.opts.ColumnsPruned.Add(float64(pruned))
	}
	level.Debug(p.opts.Logger).Log(
		"msg", "narrowed scan",
		"scan", kind,
		"source", name,
		"columns", out.Len(),
		"pruned", pruned,
	)
}

func firstSource(sources []string) string {
	if len(sources) == 0 {
		return ""
	}
	return sources[0]
}
