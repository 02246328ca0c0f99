// Package stats has the small amount of descriptive statistics the
// dashboard panels need: frequency tables, group means, Gaussian kernel
// density estimates and density-normalised histograms.
package stats
