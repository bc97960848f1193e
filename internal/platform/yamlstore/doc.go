// Package yamlstore implements store.DocumentStore as one YAML file per
// checklist in a directory. Writes are atomic (temp file, fsync, rename) and
// keep the previous file as <id>.yaml.bak. A fsnotify watcher reports files
// changed on disk, so edits made by other processes wake the scheduler.
package yamlstore
