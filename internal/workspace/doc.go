// Package workspace manages the staging directory of a build.
//
// Every output file is first written below a fresh staging directory created
// next to the final output. Only a successful build promotes the staging
// content: the package target archives it, the print target renames it into
// place. A failed build removes the staging directory and leaves previous
// output untouched.
package workspace
