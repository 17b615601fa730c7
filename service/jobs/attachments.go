package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tnqbao/gau-marine-service/entity"
	"github.com/tnqbao/gau-marine-service/utils"
)

type Upload struct {
	Name     string
	Size     int64
	MimeType string
	Body     io.Reader
}

// UploadResult is the outcome for one file of a batch. File is set on success.
type UploadResult struct {
	Name string
	File *entity.JobFile
	Err  error
}

// AddAttachments uploads every file independently and appends the ones that
// made it with a single files update. A failed file never aborts the batch.
func (c *Container) AddAttachments(ctx context.Context, serial int, uploads []Upload) ([]UploadResult, error) {
	if c.owner == uuid.Nil {
		return nil, ErrNoOwner
	}
	ctx, span := startSpan(ctx, "add_attachments", attribute.Int("job.serial", serial), attribute.Int("files.count", len(uploads)))
	defer span.End()

	if _, ok := c.Job(serial); !ok {
		return nil, fmt.Errorf("%w: serial %d", ErrJobNotFound, serial)
	}

	results := make([]UploadResult, len(uploads))
	var added []entity.JobFile
	for i, u := range uploads {
		results[i].Name = u.Name
		file, err := c.uploadOne(ctx, serial, u)
		if err != nil {
			results[i].Err = err
			c.deps.Logger.ErrorWithContextf(ctx, err, "[Jobs] Failed to upload %s to job %d: %v", u.Name, serial, err)
			c.notifyError(ctx, "attachment.failed", "Upload failed", fmt.Sprintf("Could not upload %s", u.Name), serial, u.Name)
			continue
		}
		results[i].File = &file
		added = append(added, file)
	}
	span.SetAttributes(attribute.Int("files.uploaded", len(added)))

	if len(added) == 0 {
		return results, ErrNothingUploaded
	}

	c.mu.Lock()
	i := c.indexBySerial(serial)
	if i < 0 {
		c.mu.Unlock()
		c.discardUploaded(ctx, serial, added, "job removed during upload")
		return results, fmt.Errorf("%w: serial %d", ErrJobNotFound, serial)
	}
	files := append(slices.Clone(c.jobs[i].Files), added...)
	c.mu.Unlock()

	if err := c.deps.Store.UpdateFiles(ctx, c.owner, serial, files); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "files update failed")
		c.deps.Logger.ErrorWithContextf(ctx, err, "[Jobs] Failed to save attachments of job %d: %v", serial, err)
		c.notifyError(ctx, "attachment.save_failed", "Upload failed", fmt.Sprintf("Could not save attachments of job %d", serial), serial, "")
		c.discardUploaded(ctx, serial, added, "files update failed")
		c.reconcile(ctx, "add_attachments")
		for i := range results {
			if results[i].File != nil {
				results[i].File = nil
				results[i].Err = err
			}
		}
		return results, fmt.Errorf("save attachments of job %d: %w", serial, err)
	}

	c.setFiles(serial, files)
	c.notifyInfo(ctx, "attachment.added", "Files uploaded", fmt.Sprintf("%d file(s) added to job %d", len(added), serial), serial)
	_ = c.LoadAll(ctx)
	return results, nil
}

func (c *Container) uploadOne(ctx context.Context, serial int, u Upload) (entity.JobFile, error) {
	name := strings.TrimSpace(u.Name)
	if name == "" || u.Body == nil {
		return entity.JobFile{}, fmt.Errorf("%w: empty file", ErrInvalidField)
	}

	now := c.deps.Now().UTC()
	storageName := utils.GenerateStorageName(name, now)
	key := entity.JobFileKey(serial, storageName)

	if err := c.deps.Objects.Put(ctx, key, u.Body, u.Size, u.MimeType); err != nil {
		return entity.JobFile{}, err
	}

	url, err := c.deps.Objects.PresignedURL(ctx, key, c.deps.URLExpiry)
	if err != nil {
		c.removeOrReport(ctx, key, "presign failed")
		return entity.JobFile{}, err
	}

	return entity.JobFile{
		Name:        name,
		StorageName: storageName,
		URL:         url,
		Size:        u.Size,
		MimeType:    u.MimeType,
		UploadedAt:  now,
	}, nil
}

// RenameAttachment copies the object to a storage name derived from newName,
// points the entry at it and then deletes the old object. A failed copy changes
// nothing; a failed delete leaves the old object queued as an orphan.
func (c *Container) RenameAttachment(ctx context.Context, jobID uuid.UUID, oldName, newName string) error {
	if c.owner == uuid.Nil {
		return ErrNoOwner
	}
	ctx, span := startSpan(ctx, "rename_attachment", attribute.String("job.id", jobID.String()))
	defer span.End()

	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidField)
	}

	job, file, err := c.findFile(jobID, oldName)
	if err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}
	if _, taken := job.FileByName(newName); taken {
		return fmt.Errorf("%w: %s", ErrFileExists, newName)
	}

	oldKey := entity.JobFileKey(job.Serial, file.StorageName)
	newStorage := utils.GenerateStorageName(newName, c.deps.Now())
	newKey := entity.JobFileKey(job.Serial, newStorage)

	if err := c.deps.Objects.Copy(ctx, oldKey, newKey); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "copy failed")
		c.deps.Logger.ErrorWithContextf(ctx, err, "[Jobs] Failed to copy %s to %s: %v", oldKey, newKey, err)
		c.notifyError(ctx, "attachment.rename_failed", "Rename failed", fmt.Sprintf("Could not rename %s", oldName), job.Serial, oldName)
		return fmt.Errorf("copy attachment: %w", err)
	}

	url, err := c.deps.Objects.PresignedURL(ctx, newKey, c.deps.URLExpiry)
	if err != nil {
		c.deps.Logger.ErrorWithContextf(ctx, err, "[Jobs] Failed to sign %s: %v", newKey, err)
		c.notifyError(ctx, "attachment.rename_failed", "Rename failed", fmt.Sprintf("Could not rename %s", oldName), job.Serial, oldName)
		c.removeOrReport(ctx, newKey, "rename aborted")
		return fmt.Errorf("sign attachment: %w", err)
	}

	files, ok := c.editFiles(job.Serial, func(files []entity.JobFile) ([]entity.JobFile, bool) {
		i := slices.IndexFunc(files, func(f entity.JobFile) bool { return f.StorageName == file.StorageName })
		if i < 0 {
			return nil, false
		}
		files[i].Name = newName
		files[i].StorageName = newStorage
		files[i].URL = url
		return files, true
	})
	if !ok {
		c.removeOrReport(ctx, newKey, "rename target vanished")
		return fmt.Errorf("%w: %s", ErrFileNotFound, oldName)
	}

	if err := c.deps.Store.UpdateFiles(ctx, c.owner, job.Serial, files); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "files update failed")
		c.deps.Logger.ErrorWithContextf(ctx, err, "[Jobs] Failed to save rename of %s on job %d: %v", oldName, job.Serial, err)
		c.notifyError(ctx, "attachment.rename_failed", "Rename failed", fmt.Sprintf("Could not rename %s", oldName), job.Serial, oldName)
		c.removeOrReport(ctx, newKey, "rename not saved")
		c.reconcile(ctx, "rename_attachment")
		return fmt.Errorf("save rename: %w", err)
	}
	c.setFiles(job.Serial, files)

	if err := c.deps.Objects.Remove(ctx, oldKey); err != nil {
		c.deps.Logger.WarningWithContextf(ctx, "[Jobs] Renamed %s but failed to delete old object %s: %v", oldName, oldKey, err)
		c.reportOrphan(ctx, oldKey, "rename: "+err.Error())
	}
	return nil
}

// RemoveAttachment deletes the object first; if that fails nothing changes.
func (c *Container) RemoveAttachment(ctx context.Context, jobID uuid.UUID, fileName string) error {
	if c.owner == uuid.Nil {
		return ErrNoOwner
	}
	ctx, span := startSpan(ctx, "remove_attachment", attribute.String("job.id", jobID.String()))
	defer span.End()

	job, file, err := c.findFile(jobID, fileName)
	if err != nil {
		return err
	}

	key := entity.JobFileKey(job.Serial, file.StorageName)
	if err := c.deps.Objects.Remove(ctx, key); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remove failed")
		c.deps.Logger.ErrorWithContextf(ctx, err, "[Jobs] Failed to delete object %s: %v", key, err)
		c.notifyError(ctx, "attachment.remove_failed", "Delete failed", fmt.Sprintf("Could not delete %s", fileName), job.Serial, fileName)
		return fmt.Errorf("remove attachment: %w", err)
	}

	files, ok := c.editFiles(job.Serial, func(files []entity.JobFile) ([]entity.JobFile, bool) {
		return slices.DeleteFunc(files, func(f entity.JobFile) bool { return f.StorageName == file.StorageName }), true
	})
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	if err := c.deps.Store.UpdateFiles(ctx, c.owner, job.Serial, files); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "files update failed")
		c.deps.Logger.ErrorWithContextf(ctx, err, "[Jobs] Failed to save removal of %s on job %d: %v", fileName, job.Serial, err)
		c.notifyError(ctx, "attachment.remove_failed", "Delete failed", fmt.Sprintf("Could not delete %s", fileName), job.Serial, fileName)
		c.reconcile(ctx, "remove_attachment")
		return fmt.Errorf("save removal: %w", err)
	}
	c.setFiles(job.Serial, files)
	return nil
}

// AttachmentURL signs a fresh URL for an existing attachment.
func (c *Container) AttachmentURL(ctx context.Context, jobID uuid.UUID, fileName string) (string, error) {
	if c.owner == uuid.Nil {
		return "", ErrNoOwner
	}
	job, file, err := c.findFile(jobID, fileName)
	if err != nil {
		return "", err
	}
	url, err := c.deps.Objects.PresignedURL(ctx, entity.JobFileKey(job.Serial, file.StorageName), c.deps.URLExpiry)
	if err != nil {
		c.deps.Logger.ErrorWithContextf(ctx, err, "[Jobs] Failed to sign %s of job %d: %v", fileName, job.Serial, err)
		return "", fmt.Errorf("sign attachment: %w", err)
	}
	return url, nil
}

func (c *Container) findFile(jobID uuid.UUID, name string) (entity.Job, entity.JobFile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexByID(jobID)
	if i < 0 {
		return entity.Job{}, entity.JobFile{}, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	job := c.jobs[i].Clone()
	j, ok := job.FileByName(name)
	if !ok {
		return entity.Job{}, entity.JobFile{}, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	return job, job.Files[j], nil
}

// editFiles runs fn on a copy of the job's current files. The result is what
// gets written remotely; a concurrent writer of the same list loses.
func (c *Container) editFiles(serial int, fn func([]entity.JobFile) ([]entity.JobFile, bool)) ([]entity.JobFile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexBySerial(serial)
	if i < 0 {
		return nil, false
	}
	return fn(slices.Clone(c.jobs[i].Files))
}

func (c *Container) setFiles(serial int, files []entity.JobFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexBySerial(serial); i >= 0 {
		c.jobs[i].Files = slices.Clone(files)
	}
}

func (c *Container) discardUploaded(ctx context.Context, serial int, files []entity.JobFile, reason string) {
	rollbacks.Add(ctx, 1, opAttr("add_attachments"))
	for _, f := range files {
		c.removeOrReport(ctx, entity.JobFileKey(serial, f.StorageName), reason)
	}
}

func (c *Container) removeOrReport(ctx context.Context, key, reason string) {
	if err := c.deps.Objects.Remove(ctx, key); err != nil {
		c.deps.Logger.WarningWithContextf(ctx, "[Jobs] Failed to delete %s (%s): %v", key, reason, err)
		c.reportOrphan(ctx, key, reason+": "+err.Error())
	}
}

// IsClientError reports whether err is caused by the request rather than a
// remote failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidField) || errors.Is(err, ErrFileExists) ||
		errors.Is(err, ErrJobNotFound) || errors.Is(err, ErrFileNotFound)
}
