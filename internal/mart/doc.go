// Package mart defines the tables of the finished dimensional model and the
// projections that build its dimensions.
//
// Row types carry json tags naming their columns, used by the workbook and
// report exports, and gorm tags used when a build is published to a database.
package mart
