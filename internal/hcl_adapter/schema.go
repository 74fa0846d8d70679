package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Warehouse *warehouseBlock `hcl:"warehouse,block"`
	Sources   []*sourceBlock  `hcl:"source,block"`
	Calendar  *calendarBlock  `hcl:"calendar,block"`
	Expects   []*boundsBlock  `hcl:"expect,block"`
	RowCounts []*boundsBlock  `hcl:"row_count,block"`
	Export    *exportBlock    `hcl:"export,block"`
	Publish   *publishBlock   `hcl:"publish,block"`
}

type warehouseBlock struct {
	RawDir string `hcl:"raw_dir,optional"`
}

type sourceBlock struct {
	Name   string `hcl:"name,label"`
	File   string `hcl:"file"`
	Format string `hcl:"format,optional"`
}

type calendarBlock struct {
	Start string `hcl:"start"`
	End   string `hcl:"end"`
}

// boundsBlock is shared by expect and row_count. Either exact or a min/max
// pair is set.
type boundsBlock struct {
	Name  string         `hcl:"name,label"`
	Exact hcl.Expression `hcl:"exact,optional"`
	Min   hcl.Expression `hcl:"min,optional"`
	Max   hcl.Expression `hcl:"max,optional"`
}

type exportBlock struct {
	Workbook string `hcl:"workbook,optional"`
	Report   string `hcl:"report,optional"`
}

type publishBlock struct {
	DSN       string `hcl:"dsn"`
	BatchSize int    `hcl:"batch_size,optional"`
}
