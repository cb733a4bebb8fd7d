package rest

import (
	"io"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"

	jobboard "github.com/jobhive/jobhive"
)

// JobController serves job CRUD, search, and the application endpoints.
type JobController struct {
	repo      jobboard.RepositoryManager
	lifecycle *jobboard.LifecycleManager
	storage   jobboard.FileStorage
	logger    jobboard.Logger
}

func NewJobController(repo jobboard.RepositoryManager, lifecycle *jobboard.LifecycleManager) *JobController {
	return &JobController{
		repo:      repo,
		lifecycle: lifecycle,
		logger:    jobboard.NewDefaultLogger(),
	}
}

func (ct *JobController) WithFileStorage(storage jobboard.FileStorage) *JobController {
	ct.storage = storage
	return ct
}

func (ct *JobController) WithLogger(logger jobboard.Logger) *JobController {
	if logger != nil {
		ct.logger = logger
	}
	return ct
}

// Register mounts the job routes; all require authentication.
func (ct *JobController) Register(router fiber.Router) {
	router.Get("/jobs", ct.Search)
	router.Post("/jobs", ct.Create)
	router.Get("/jobs/:id", ct.Get)
	router.Put("/jobs/:id", ct.Update)
	router.Delete("/jobs/:id", ct.Delete)
	router.Post("/jobs/:id/close", ct.Close)
	router.Post("/jobs/:id/reopen", ct.Reopen)
	router.Post("/jobs/:id/apply", ct.Apply)
	router.Get("/jobs/:id/applications", ct.Applications)
	router.Put("/applications/:id/status", ct.UpdateApplicationStatus)
}

// JobPayload is the create/update body.
type JobPayload struct {
	CompanyID       string   `json:"company_id"`
	Title           string   `json:"job_title"`
	Location        string   `json:"job_location"`
	WorkingTime     string   `json:"working_time"`
	Seniority       string   `json:"seniority_level"`
	Description     string   `json:"job_description"`
	TechnicalSkills []string `json:"technical_skills"`
	SoftSkills      []string `json:"soft_skills"`
}

func (r JobPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CompanyID, validation.Required),
		validation.Field(&r.Title, validation.Required, validation.Length(2, 200)),
		validation.Field(&r.Location, validation.Required, validation.In(
			jobboard.LocationOnsite,
			jobboard.LocationRemote,
			jobboard.LocationHybrid,
		)),
		validation.Field(&r.WorkingTime, validation.Required, validation.In(
			jobboard.WorkingPartTime,
			jobboard.WorkingFullTime,
		)),
		validation.Field(&r.Seniority, validation.Required, validation.In(
			jobboard.SeniorityFresh,
			jobboard.SeniorityJunior,
			jobboard.SeniorityMid,
			jobboard.SenioritySenior,
			jobboard.SeniorityTeamLead,
			jobboard.SeniorityCTO,
		)),
	)
}

func (ct *JobController) Search(c *fiber.Ctx) error {
	filter := jobboard.JobFilter{
		CompanyName: c.Query("company"),
		Title:       c.Query("title"),
		Location:    c.Query("location"),
		WorkingTime: c.Query("working_time"),
		Seniority:   c.Query("seniority"),
		Skill:       c.Query("skill"),
		Limit:       c.QueryInt("limit", 20),
		Offset:      c.QueryInt("offset", 0),
	}

	if companyID := c.Query("company_id"); companyID != "" {
		id, err := uuid.Parse(companyID)
		if err != nil {
			return badRequest("invalid company_id", err)
		}
		filter.CompanyID = id
	}

	jobs, err := ct.repo.Jobs().Search(c.UserContext(), filter)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "job search failed")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"jobs":    jobs,
	})
}

func (ct *JobController) Create(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	var req JobPayload
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid job payload", err)
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		return badRequest("invalid company id", err)
	}

	company, err := ct.repo.Companies().GetWithHRs(c.UserContext(), companyID)
	if err != nil {
		return notFoundError(err, "company not found")
	}

	if !jobboard.CanAct(actor, jobboard.ActionCreateJob, jobboard.CompanyResource{Company: company}) {
		return jobboard.ErrForbidden
	}

	// unapproved companies cannot post jobs
	if !company.Approved {
		return jobboard.ErrCompanyInactive
	}

	job := &jobboard.Job{
		ID:              uuid.New(),
		CompanyID:       companyID,
		Title:           req.Title,
		Location:        req.Location,
		WorkingTime:     req.WorkingTime,
		Seniority:       req.Seniority,
		Description:     req.Description,
		TechnicalSkills: req.TechnicalSkills,
		SoftSkills:      req.SoftSkills,
		AddedBy:         &actor.ID,
	}

	created, err := ct.repo.Jobs().Create(c.UserContext(), job)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "could not create job")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"job":     created,
	})
}

func (ct *JobController) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	job, err := ct.repo.Jobs().GetByID(c.UserContext(), id.String())
	if err != nil {
		return notFoundError(err, "job not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"job":     job,
	})
}

func (ct *JobController) Update(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	job, err := ct.repo.Jobs().GetByID(c.UserContext(), id.String())
	if err != nil {
		return notFoundError(err, "job not found")
	}

	company, err := ct.repo.Companies().GetWithHRs(c.UserContext(), job.CompanyID)
	if err != nil {
		return notFoundError(err, "company not found")
	}

	if !jobboard.CanAct(actor, jobboard.ActionUpdateJob, jobboard.JobResource{Job: job, Company: company}) {
		return jobboard.ErrForbidden
	}

	var req JobPayload
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid job payload", err)
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	job.Title = req.Title
	job.Location = req.Location
	job.WorkingTime = req.WorkingTime
	job.Seniority = req.Seniority
	job.Description = req.Description
	job.TechnicalSkills = req.TechnicalSkills
	job.SoftSkills = req.SoftSkills
	job.UpdatedBy = &actor.ID

	updated, err := ct.repo.Jobs().Update(c.UserContext(), job, repository.UpdateByID(id.String()))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "could not update job")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"job":     updated,
	})
}

func (ct *JobController) Delete(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := ct.lifecycle.SoftDeleteJob(c.UserContext(), actor, id); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

func (ct *JobController) Close(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := ct.lifecycle.CloseJob(c.UserContext(), actor, id); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

func (ct *JobController) Reopen(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := ct.lifecycle.ReopenJob(c.UserContext(), actor, id); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

func (ct *JobController) Apply(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	cv, err := ct.uploadCV(c)
	if err != nil {
		return err
	}

	application, err := ct.lifecycle.SubmitApplication(c.UserContext(), actor, id, cv)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"application": application,
	})
}

func (ct *JobController) Applications(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	job, err := ct.repo.Jobs().GetByID(c.UserContext(), id.String())
	if err != nil {
		return notFoundError(err, "job not found")
	}

	company, err := ct.repo.Companies().GetWithHRs(c.UserContext(), job.CompanyID)
	if err != nil {
		return notFoundError(err, "company not found")
	}

	if !jobboard.CanAct(actor, jobboard.ActionViewApplications, jobboard.JobResource{Job: job, Company: company}) {
		return jobboard.ErrForbidden
	}

	applications, err := ct.repo.Applications().ListByJob(c.UserContext(), id)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "could not list applications")
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"applications": applications,
	})
}

// StatusPayload carries the new application status.
type StatusPayload struct {
	Status string `json:"status"`
}

func (r StatusPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required, validation.In(
			jobboard.StatusPending,
			jobboard.StatusViewed,
			jobboard.StatusInConsideration,
			jobboard.StatusAccepted,
			jobboard.StatusRejected,
		)),
	)
}

func (ct *JobController) UpdateApplicationStatus(c *fiber.Ctx) error {
	actor := CurrentUser(c)

	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req StatusPayload
	if err := c.BodyParser(&req); err != nil {
		return badRequest("invalid status payload", err)
	}

	if err := req.Validate(); err != nil {
		return validationError(err)
	}

	if err := ct.lifecycle.UpdateApplicationStatus(c.UserContext(), actor, id, req.Status); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true})
}

func (ct *JobController) uploadCV(c *fiber.Ctx) (jobboard.Attachment, error) {
	file, err := c.FormFile("cv")
	if err != nil {
		// CV is optional at the transport layer; the job may accept
		// profile-only applications
		return jobboard.Attachment{}, nil
	}

	if ct.storage == nil {
		return jobboard.Attachment{}, goerrors.New("file storage is not configured", goerrors.CategoryOperation)
	}

	f, err := file.Open()
	if err != nil {
		return jobboard.Attachment{}, badRequest("could not read upload", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return jobboard.Attachment{}, badRequest("could not read upload", err)
	}

	return ct.storage.Upload(c.UserContext(), file.Filename, data)
}
