package echoapi

import (
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edudesk/portal/core"
	"github.com/edudesk/portal/core/school"
)

type schoolApi struct {
	*Server
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, s *Server) {
	api := schoolApi{Server: s}

	sg := g.Group("/schools/:schoolId", jwt, schoolAccessMiddleware())
	sg.GET("/dashboard", api.dashboard)

	sg.GET("/tutors", api.tutorQuery)
	sg.POST("/tutors", api.tutorCreate)
	sg.PUT("/tutors/:tutorId", api.tutorUpdate)
	sg.DELETE("/tutors/:tutorId", api.tutorDestroy)

	sg.POST("/grades", api.gradeCreate)
	sg.PUT("/grades/:gradeId", api.gradeRename)
	sg.DELETE("/grades/:gradeId", api.gradeDestroy)
	sg.POST("/grades/:gradeId/sections", api.sectionCreate)
	sg.DELETE("/grades/sections/:sectionId", api.sectionDestroy)
	sg.PUT("/grades/sections/:sectionId/subjects", api.sectionSubjectsReplace)
	sg.POST("/grades/sections/:sectionId/subjects", api.sectionSubjectCreate)
	sg.DELETE("/grades/section-subjects/:subjectId", api.sectionSubjectDestroy)

	sg.GET("/assignments", api.assignmentQuery)
	sg.POST("/assignments", api.assignmentCreate)
	sg.PUT("/assignments", api.assignmentReplace)
	sg.DELETE("/assignments/:assignmentId", api.assignmentDestroy)
	sg.DELETE("/assignments/tutor/:tutorId", api.tutorAssignmentsDestroy)
}

func schoolID(ctx echo.Context) string { return ctx.Param("schoolId") }

// temporaryPassword returns a random password handed out once to a new tutor.
func temporaryPassword() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}

func (api schoolApi) success(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// Dashboard

func (api schoolApi) dashboard(ctx echo.Context) error {
	dash, err := api.deps.DB.Dashboard(schoolID(ctx))
	if err != nil {
		return errors.Wrap(err, "loading dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

// Tutors

func (api schoolApi) tutorQuery(ctx echo.Context) error {
	tutors, err := api.deps.DB.Tutors(schoolID(ctx), ctx.QueryParam("simple") == "true")
	if err != nil {
		return errors.Wrap(err, "querying tutors")
	}
	return ctx.JSON(http.StatusOK, tutors)
}

func (api schoolApi) tutorCreate(ctx echo.Context) error {
	var data TutorRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TutorRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sch, err := api.deps.DB.GetSchool(schoolID(ctx))
	if err != nil {
		return errors.Wrap(err, "finding school")
	}
	pwd := temporaryPassword()
	tut, err := api.deps.DB.CreateTutor(sch.ID, data.input(), pwd)
	if err != nil {
		return errors.Wrap(err, "creating tutor")
	}

	api.deps.Mailer.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: tut.Name, Address: tut.Email}},
		Subject:      "Your tutor account",
		TemplateName: "tutor_welcome",
		TemplateData: map[string]interface{}{
			"Name":       tut.Name,
			"Email":      tut.Email,
			"Password":   pwd,
			"SchoolName": sch.Name,
		},
	})
	return ctx.JSON(http.StatusCreated, school.CreatedTutor{Tutor: tut, TemporaryPassword: pwd})
}

func (api schoolApi) tutorUpdate(ctx echo.Context) error {
	var data TutorRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TutorRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tut, err := api.deps.DB.UpdateTutor(schoolID(ctx), ctx.Param("tutorId"), data.input())
	if err != nil {
		return errors.Wrap(err, "updating tutor")
	}
	return ctx.JSON(http.StatusOK, tut)
}

func (api schoolApi) tutorDestroy(ctx echo.Context) error {
	if err := api.deps.DB.DeleteTutor(schoolID(ctx), ctx.Param("tutorId")); err != nil {
		return errors.Wrap(err, "deleting tutor")
	}
	return api.success(ctx)
}

// Grades & Sections

func (api schoolApi) gradeCreate(ctx echo.Context) error {
	var data GradeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	grade, err := api.deps.DB.CreateGrade(schoolID(ctx), data.input())
	if err != nil {
		return errors.Wrap(err, "creating grade")
	}
	return ctx.JSON(http.StatusCreated, grade)
}

func (api schoolApi) gradeRename(ctx echo.Context) error {
	var data RenameRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RenameRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.deps.DB.RenameGrade(schoolID(ctx), ctx.Param("gradeId"), data.Name); err != nil {
		return errors.Wrap(err, "renaming grade")
	}
	return api.success(ctx)
}

func (api schoolApi) gradeDestroy(ctx echo.Context) error {
	if err := api.deps.DB.DeleteGrade(schoolID(ctx), ctx.Param("gradeId")); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return api.success(ctx)
}

func (api schoolApi) sectionCreate(ctx echo.Context) error {
	var data SectionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SectionRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sec, err := api.deps.DB.AddSection(schoolID(ctx), ctx.Param("gradeId"), data.input())
	if err != nil {
		return errors.Wrap(err, "adding section")
	}
	return ctx.JSON(http.StatusCreated, sec)
}

func (api schoolApi) sectionDestroy(ctx echo.Context) error {
	if err := api.deps.DB.DeleteSection(schoolID(ctx), ctx.Param("sectionId")); err != nil {
		return errors.Wrap(err, "deleting section")
	}
	return api.success(ctx)
}

func (api schoolApi) sectionSubjectsReplace(ctx echo.Context) error {
	var data SubjectsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubjectsRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.deps.DB.ReplaceSectionSubjects(schoolID(ctx), ctx.Param("sectionId"), data.Subjects); err != nil {
		return errors.Wrap(err, "replacing section subjects")
	}
	return api.success(ctx)
}

func (api schoolApi) sectionSubjectCreate(ctx echo.Context) error {
	var data SubjectRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubjectRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.deps.DB.AddSectionSubject(schoolID(ctx), ctx.Param("sectionId"), data.Name)
	if err != nil {
		return errors.Wrap(err, "adding section subject")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api schoolApi) sectionSubjectDestroy(ctx echo.Context) error {
	if err := api.deps.DB.DeleteSectionSubject(schoolID(ctx), ctx.Param("subjectId")); err != nil {
		return errors.Wrap(err, "deleting section subject")
	}
	return api.success(ctx)
}

// Assignments

func (api schoolApi) assignmentQuery(ctx echo.Context) error {
	assignments, err := api.deps.DB.Assignments(schoolID(ctx))
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api schoolApi) bindAssignment(ctx echo.Context) (AssignmentRequest, error) {
	var data AssignmentRequest
	if err := ctx.Bind(&data); err != nil {
		return data, errors.Wrap(err, "binding to AssignmentRequest")
	}
	return data, data.Validate(api.validate)
}

func (api schoolApi) assignmentCreate(ctx echo.Context) error {
	data, err := api.bindAssignment(ctx)
	if err != nil {
		return err
	}
	a, err := api.deps.DB.CreateAssignment(schoolID(ctx), data.input())
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api schoolApi) assignmentReplace(ctx echo.Context) error {
	data, err := api.bindAssignment(ctx)
	if err != nil {
		return err
	}
	a, err := api.deps.DB.ReplaceAssignment(schoolID(ctx), data.input())
	if err != nil {
		return errors.Wrap(err, "replacing assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api schoolApi) assignmentDestroy(ctx echo.Context) error {
	if err := api.deps.DB.DeleteAssignment(schoolID(ctx), ctx.Param("assignmentId")); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return api.success(ctx)
}

func (api schoolApi) tutorAssignmentsDestroy(ctx echo.Context) error {
	if err := api.deps.DB.DeleteTutorAssignments(schoolID(ctx), ctx.Param("tutorId")); err != nil {
		return errors.Wrap(err, "deleting tutor assignments")
	}
	return api.success(ctx)
}
