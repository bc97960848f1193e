// Package thread linearizes a task's remarks for display. Remarks form a
// forest through optional parent links; Flatten walks it depth-first with
// siblings in timestamp order, so a reply always appears directly beneath
// the remark it answers.
package thread
