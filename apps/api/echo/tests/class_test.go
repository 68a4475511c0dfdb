package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/Daniel-Nas/teaching-assistant/core/class"
	"github.com/Daniel-Nas/teaching-assistant/core/rubric"
	"github.com/Daniel-Nas/teaching-assistant/core/student"
	emailsvc "github.com/Daniel-Nas/teaching-assistant/services/email"
	testutil "github.com/Daniel-Nas/teaching-assistant/tests"
)

func Test_classApi_create(t *testing.T) {
	testutil.ResetDB(t, db)

	testutil.CreateClass(t, clsRepo, "Design Patterns", 2026, 1)
	token := getToken(t)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Empty body", token: token, body: []byte("{}"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"topic":    "this field is required",
				"semester": "this field is required",
				"year":     "this field is required",
			}),
		},
		{
			name: "Semester out of range", token: token, body: marchallObj(t, class.NewClass{Topic: "Compilers", Semester: 3, Year: 2026}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"semester": "semester must be 2 or less"}),
		},
		{
			name: "Year out of range", token: token, body: marchallObj(t, class.NewClass{Topic: "Compilers", Semester: 1, Year: 1800}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"year": "year must be 1,900 or greater"}),
		},
		{
			name: "Duplicate identity", token: token, body: marchallObj(t, class.NewClass{Topic: "design patterns", Semester: 1, Year: 2026}),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "a class with this topic, year and semester already exists"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/classes", tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Class created", func(t *testing.T) {
		body := marchallObj(t, class.NewClass{Topic: "  Compilers ", Semester: 2, Year: 2026})
		req, rec := newAuthRequest(http.MethodPost, "/v1/classes", token, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var cls class.Class
		if err := json.Unmarshal(rec.Body.Bytes(), &cls); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if cls.ID == "" {
			t.Error("cls.ID not set")
		}
		if cls.Topic != "Compilers" {
			t.Errorf("cls.Topic = %q; want %q", cls.Topic, "Compilers")
		}
		if cls.Enrollments == nil || len(cls.Enrollments) != 0 {
			t.Errorf("cls.Enrollments = %v; want empty", cls.Enrollments)
		}

		// same topic on another semester is a different class
		body = marchallObj(t, class.NewClass{Topic: "Compilers", Semester: 1, Year: 2026})
		req, rec = newAuthRequest(http.MethodPost, "/v1/classes", token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Errorf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
	})
}

func Test_classApi_query(t *testing.T) {
	testutil.ResetDB(t, db)

	now := time.Now().Truncate(time.Second)
	cls1 := testutil.CreateClass(t, clsRepo, "Design Patterns", 2026, 1, now)
	cls2 := testutil.CreateClass(t, clsRepo, "Compilers", 2026, 2, now.Add(time.Hour))
	token := getToken(t)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Get all", token: token, wantCode: http.StatusOK, wantData: marchallList(t, cls1, cls2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/classes", tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_classApi_retrieve(t *testing.T) {
	testutil.ResetDB(t, db)

	cls := testutil.CreateClass(t, clsRepo, "Design Patterns", 2026, 1)
	token := getToken(t)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/classes/" + cls.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Not found", path: "/v1/classes/nope", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "Found", path: "/v1/classes/" + cls.ID, token: token, wantCode: http.StatusOK, wantData: marchallObj(t, cls)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_classApi_update(t *testing.T) {
	testutil.ResetDB(t, db)

	cls := testutil.CreateClass(t, clsRepo, "Design Patterns", 2026, 1)
	testutil.CreateClass(t, clsRepo, "Compilers", 2026, 1)
	token := getToken(t)

	tests := []httpTest{
		{name: "Auth required", body: []byte("{}"), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Identity collision rejected", token: token, body: marchallObj(t, class.UpdateClass{Topic: "compilers"}),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "a class with this topic, year and semester already exists"}),
		},
		{
			name: "Semester out of range", token: token, body: marchallObj(t, class.UpdateClass{Semester: 3}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"semester": "semester must be 2 or less"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, "/v1/classes/"+cls.ID, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Partial update keeps other fields and the ID", func(t *testing.T) {
		body := marchallObj(t, class.UpdateClass{Semester: 2})
		req, rec := newAuthRequest(http.MethodPut, "/v1/classes/"+cls.ID, token, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var got class.Class
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if got.ID != cls.ID {
			t.Errorf("got.ID = %q; want %q", got.ID, cls.ID)
		}
		if got.Topic != "Design Patterns" {
			t.Errorf("got.Topic = %q; want %q", got.Topic, "Design Patterns")
		}
		if got.Semester != 2 {
			t.Errorf("got.Semester = %v; want 2", got.Semester)
		}
		if got.Year != 2026 {
			t.Errorf("got.Year = %v; want 2026", got.Year)
		}
	})

	t.Run("Same identity allowed on self", func(t *testing.T) {
		body := marchallObj(t, class.UpdateClass{Topic: "DESIGN PATTERNS"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/classes/"+cls.ID, token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
	})
}

func Test_classApi_destroy(t *testing.T) {
	testutil.ResetDB(t, db)

	cls := testutil.CreateClass(t, clsRepo, "Design Patterns", 2026, 1)
	token := getToken(t)

	t.Run("Destroy", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/classes/"+cls.ID, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/classes/"+cls.ID, token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})
}

func Test_classApi_enroll(t *testing.T) {
	testutil.ResetDB(t, db)

	testutil.CreateStudent(t, stdRepo, "Ana", cpfAna, "ana@test.br")
	cls := testutil.CreateClass(t, clsRepo, "Design Patterns", 2026, 1)
	other := testutil.CreateClass(t, clsRepo, "Compilers", 2026, 1)
	token := getToken(t)

	enrollBody := func(cpf string) []byte { return marchallObj(t, map[string]string{"cpf": cpf}) }

	tests := []httpTest{
		{
			name: "Auth required", path: "/v1/classes/" + cls.ID + "/enrollments", body: enrollBody(cpfAna),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Unknown class", path: "/v1/classes/nope/enrollments", token: token, body: enrollBody(cpfAna),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "class not found"}),
		},
		{
			name: "Invalid CPF", path: "/v1/classes/" + cls.ID + "/enrollments", token: token, body: enrollBody("123"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"cpf": "invalid CPF number"}),
		},
		{
			name: "Unregistered student", path: "/v1/classes/" + cls.ID + "/enrollments", token: token, body: enrollBody(cpfBeto),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Enrolled with formatted CPF", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/classes/"+cls.ID+"/enrollments", token, enrollBody("529.982.247-25"))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var got class.Class
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if len(got.Enrollments) != 1 {
			t.Fatalf("len(got.Enrollments) = %v; want 1", len(got.Enrollments))
		}
		if got.Enrollments[0].StudentCPF != cpfAna { // stored normalized
			t.Errorf("StudentCPF = %q; want %q", got.Enrollments[0].StudentCPF, cpfAna)
		}
	})

	t.Run("Enrolling twice conflicts", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/classes/"+cls.ID+"/enrollments", token, enrollBody(cpfAna))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "student is already enrolled in this class"}),
		}, rec)
	})

	t.Run("Other classes are independent", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/classes/"+other.ID+"/enrollments", token, enrollBody(cpfAna))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Errorf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
	})

	t.Run("Unenroll is idempotent", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/classes/"+cls.ID+"/enrollments/"+cpfAna, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}

		// repeating the call is a no-op, not an error
		req, rec = newAuthRequest(http.MethodDelete, "/v1/classes/"+cls.ID+"/enrollments/"+cpfAna, token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}
	})
}

func Test_classApi_enrollmentFollowsCPFChange(t *testing.T) {
	testutil.ResetDB(t, db)

	testutil.CreateStudent(t, stdRepo, "Ana", cpfAna, "ana@test.br")
	cls := testutil.CreateClass(t, clsRepo, "Design Patterns", 2026, 1)
	token := getToken(t)

	req, rec := newAuthRequest(http.MethodPost, "/v1/classes/"+cls.ID+"/enrollments", token, marchallObj(t, map[string]string{"cpf": cpfAna}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("enroll failed! code = %v: %s", rec.Code, rec.Body.String())
	}
	body := marchallObj(t, class.Evaluation{Goal: rubric.GoalDesign, Grade: rubric.GradeMPA, Kind: class.KindTeacher})
	req, rec = newAuthRequest(http.MethodPut, "/v1/classes/"+cls.ID+"/enrollments/"+cpfAna+"/evaluations", token, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("evaluation failed! code = %v: %s", rec.Code, rec.Body.String())
	}

	// a corrected CPF carries the enrollment along
	req, rec = newAuthRequest(http.MethodPut, "/v1/students/"+cpfAna, token, marchallObj(t, student.UpdateStudent{CPF: "083.016.613-05"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update failed! code = %v: %s", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/classes/"+cls.ID, token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("retrieve failed! code = %v: %s", rec.Code, rec.Body.String())
	}
	var got class.Class
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Enrollments) != 1 || got.Enrollments[0].StudentCPF != cpfCris {
		t.Fatalf("enrollments after CPF change = %+v", got.Enrollments)
	}
	if g := got.Enrollments[0].TeacherEvals[rubric.GoalDesign]; g != rubric.GradeMPA {
		t.Errorf("teacher grade after CPF change = %q, want %q", g, rubric.GradeMPA)
	}

	// recording under the new number works; the old number is gone
	body = marchallObj(t, class.Evaluation{Goal: rubric.GoalTests, Grade: rubric.GradeMA, Kind: class.KindTeacher})
	req, rec = newAuthRequest(http.MethodPut, "/v1/classes/"+cls.ID+"/enrollments/"+cpfCris+"/evaluations", token, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("evaluation under new CPF failed! code = %v: %s", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodPut, "/v1/classes/"+cls.ID+"/enrollments/"+cpfAna+"/evaluations", token, body)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Error: "student is not enrolled in this class"}),
	}, rec)
}

func Test_classApi_evaluations(t *testing.T) {
	testutil.ResetDB(t, db)

	testutil.CreateStudent(t, stdRepo, "Ana", cpfAna, "ana@test.br")
	testutil.CreateStudent(t, stdRepo, "Beto", cpfBeto, "beto@test.br")
	cls := testutil.CreateClass(t, clsRepo, "Design Patterns", 2026, 1)
	token := getToken(t)

	enroll := func(cpf string) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/classes/"+cls.ID+"/enrollments", token, marchallObj(t, map[string]string{"cpf": cpf}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("enroll(%s) failed: %s", cpf, rec.Body.String())
		}
	}
	enroll(cpfAna)

	evalBody := func(goal rubric.Goal, grade rubric.Grade, kind class.Kind) []byte {
		return marchallObj(t, class.Evaluation{Goal: goal, Grade: grade, Kind: kind})
	}
	evalPath := func(cpf string) string {
		return "/v1/classes/" + cls.ID + "/enrollments/" + cpf + "/evaluations"
	}

	tests := []httpTest{
		{
			name: "Auth required", path: evalPath(cpfAna), body: evalBody(rubric.GoalDesign, rubric.GradeMA, class.KindTeacher),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Unknown goal", path: evalPath(cpfAna), token: token, body: evalBody("Vibes", rubric.GradeMA, class.KindTeacher),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"goal": "unknown rubric goal"}),
		},
		{
			name: "Unknown grade", path: evalPath(cpfAna), token: token, body: evalBody(rubric.GoalDesign, "A+", class.KindTeacher),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"grade": "grade must be one of MANA, MPA or MA"}),
		},
		{
			name: "Unknown kind", path: evalPath(cpfAna), token: token, body: evalBody(rubric.GoalDesign, rubric.GradeMA, "principal"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"kind": "kind must be teacher or self"}),
		},
		{
			name: "Not enrolled", path: evalPath(cpfBeto), token: token, body: evalBody(rubric.GoalDesign, rubric.GradeMA, class.KindTeacher),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student is not enrolled in this class"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	record := func(t *testing.T, body []byte) class.Class {
		req, rec := newAuthRequest(http.MethodPut, evalPath(cpfAna), token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var got class.Class
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		return got
	}

	t.Run("Grade recorded and overwritten", func(t *testing.T) {
		record(t, evalBody(rubric.GoalDesign, rubric.GradeMPA, class.KindTeacher))
		got := record(t, evalBody(rubric.GoalDesign, rubric.GradeMA, class.KindTeacher))

		if g := got.Enrollments[0].TeacherEvals[rubric.GoalDesign]; g != rubric.GradeMA {
			t.Errorf("TeacherEvals[Design] = %q; want %q", g, rubric.GradeMA)
		}
	})

	t.Run("Kinds are independent", func(t *testing.T) {
		got := record(t, evalBody(rubric.GoalDesign, rubric.GradeMANA, class.KindSelf))

		if g := got.Enrollments[0].TeacherEvals[rubric.GoalDesign]; g != rubric.GradeMA {
			t.Errorf("TeacherEvals[Design] = %q; want %q", g, rubric.GradeMA)
		}
		if g := got.Enrollments[0].SelfEvals[rubric.GoalDesign]; g != rubric.GradeMANA {
			t.Errorf("SelfEvals[Design] = %q; want %q", g, rubric.GradeMANA)
		}
	})

	t.Run("Empty grade removes the record", func(t *testing.T) {
		got := record(t, evalBody(rubric.GoalDesign, rubric.GradeNone, class.KindTeacher))

		if _, ok := got.Enrollments[0].TeacherEvals[rubric.GoalDesign]; ok {
			t.Error("TeacherEvals[Design] still set; want removed")
		}
		// removing an absent record is fine
		record(t, evalBody(rubric.GoalDesign, rubric.GradeNone, class.KindTeacher))
	})

	t.Run("Import applies cells through the same path", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{
			"cells": []class.Evaluation{
				{Goal: rubric.GoalRequirements, Grade: rubric.GradeMA, Kind: class.KindTeacher},
				{Goal: rubric.GoalTests, Grade: rubric.GradeMPA, Kind: class.KindTeacher},
			},
		})
		req, rec := newAuthRequest(http.MethodPost, evalPath(cpfAna)+"/import", token, body)
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var got class.Class
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if g := got.Enrollments[0].TeacherEvals[rubric.GoalRequirements]; g != rubric.GradeMA {
			t.Errorf("TeacherEvals[Requirements] = %q; want %q", g, rubric.GradeMA)
		}
		if g := got.Enrollments[0].TeacherEvals[rubric.GoalTests]; g != rubric.GradeMPA {
			t.Errorf("TeacherEvals[Tests] = %q; want %q", g, rubric.GradeMPA)
		}
	})

	t.Run("Import aborts on the first bad cell", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{
			"cells": []class.Evaluation{
				{Goal: rubric.GoalRefactoring, Grade: rubric.GradeMA, Kind: class.KindTeacher},
				{Goal: "Vibes", Grade: rubric.GradeMA, Kind: class.KindTeacher},
			},
		})
		req, rec := newAuthRequest(http.MethodPost, evalPath(cpfAna)+"/import", token, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"goal": "unknown rubric goal"}),
		}, rec)

		// cells before the bad one stay applied
		req, rec = newAuthRequest(http.MethodGet, "/v1/classes/"+cls.ID, token)
		app.ServeHTTP(rec, req)
		var got class.Class
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}
		if g := got.Enrollments[0].TeacherEvals[rubric.GoalRefactoring]; g != rubric.GradeMA {
			t.Errorf("TeacherEvals[Refactoring] = %q; want %q", g, rubric.GradeMA)
		}
	})
}

func Test_classApi_discrepancies(t *testing.T) {
	testutil.ResetDB(t, db)

	ana := testutil.CreateStudent(t, stdRepo, "Ana", cpfAna, "ana@test.br")
	beto := testutil.CreateStudent(t, stdRepo, "Beto", cpfBeto, "beto@test.br")
	cls := testutil.CreateClass(t, clsRepo, "Design Patterns", 2026, 1)
	token := getToken(t)

	do := func(method, path string, body []byte, wantCode int) *json.Decoder {
		t.Helper()
		req, rec := newAuthRequest(method, path, token, body)
		app.ServeHTTP(rec, req)
		if rec.Code != wantCode {
			t.Fatalf("%s %s failed: code = %v; want %v: %s", method, path, rec.Code, wantCode, rec.Body.String())
		}
		return json.NewDecoder(rec.Body)
	}
	record := func(cpf string, goal rubric.Goal, grade rubric.Grade, kind class.Kind) {
		body := marchallObj(t, class.Evaluation{Goal: goal, Grade: grade, Kind: kind})
		do(http.MethodPut, "/v1/classes/"+cls.ID+"/enrollments/"+cpf+"/evaluations", body, http.StatusOK)
	}

	do(http.MethodPost, "/v1/classes/"+cls.ID+"/enrollments", marchallObj(t, map[string]string{"cpf": cpfAna}), http.StatusCreated)
	do(http.MethodPost, "/v1/classes/"+cls.ID+"/enrollments", marchallObj(t, map[string]string{"cpf": cpfBeto}), http.StatusCreated)

	// Ana: 3 considered goals, 1 overstated -> 33%, highlighted
	record(cpfAna, rubric.GoalRequirements, rubric.GradeMA, class.KindTeacher)
	record(cpfAna, rubric.GoalRequirements, rubric.GradeMA, class.KindSelf)
	record(cpfAna, rubric.GoalDesign, rubric.GradeMPA, class.KindTeacher)
	record(cpfAna, rubric.GoalDesign, rubric.GradeMA, class.KindSelf)
	record(cpfAna, rubric.GoalTests, rubric.GradeMPA, class.KindTeacher)

	// Beto only understates; never flagged
	record(cpfBeto, rubric.GoalRequirements, rubric.GradeMA, class.KindTeacher)
	record(cpfBeto, rubric.GoalRequirements, rubric.GradeMANA, class.KindSelf)

	goals := func(overrides map[rubric.Goal]class.GoalComparison) []class.GoalComparison {
		out := make([]class.GoalComparison, 0, len(rubric.Goals))
		for _, g := range rubric.Goals {
			if gc, ok := overrides[g]; ok {
				gc.Goal = g
				out = append(out, gc)
				continue
			}
			out = append(out, class.GoalComparison{Goal: g})
		}
		return out
	}

	want := class.DiscrepancyReport{
		ClassID: cls.ID,
		Students: []class.StudentReport{
			{
				StudentID:   ana.ID,
				StudentCPF:  ana.CPF,
				StudentName: ana.Name,
				Goals: goals(map[rubric.Goal]class.GoalComparison{
					rubric.GoalRequirements: {TeacherGrade: rubric.GradeMA, SelfGrade: rubric.GradeMA},
					rubric.GoalDesign:       {TeacherGrade: rubric.GradeMPA, SelfGrade: rubric.GradeMA, Overstated: true},
					rubric.GoalTests:        {TeacherGrade: rubric.GradeMPA},
				}),
				Discrepancy: rubric.Discrepancy{Percentage: 33, Highlight: true},
			},
			{
				StudentID:   beto.ID,
				StudentCPF:  beto.CPF,
				StudentName: beto.Name,
				Goals: goals(map[rubric.Goal]class.GoalComparison{
					rubric.GoalRequirements: {TeacherGrade: rubric.GradeMA, SelfGrade: rubric.GradeMANA},
				}),
				Discrepancy: rubric.Discrepancy{},
			},
		},
	}

	tt := httpTest{
		name:     "Report",
		wantCode: http.StatusOK,
		wantData: marchallObj(t, want),
	}
	t.Run(tt.name, func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/classes/"+cls.ID+"/discrepancies", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Unknown class", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/classes/nope/discrepancies", token)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "class not found"}),
		}, rec)
	})
}

func Test_classApi_selfEvaluationRequest(t *testing.T) {
	testutil.ResetDB(t, db)

	testutil.CreateStudent(t, stdRepo, "Ana", cpfAna, "ana@test.br")
	testutil.CreateStudent(t, stdRepo, "Beto", cpfBeto, "") // no email, skipped
	cls := testutil.CreateClass(t, clsRepo, "Design Patterns", 2026, 1)
	token := getToken(t)

	for _, cpf := range []string{cpfAna, cpfBeto} {
		req, rec := newAuthRequest(http.MethodPost, "/v1/classes/"+cls.ID+"/enrollments", token, marchallObj(t, map[string]string{"cpf": cpf}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("enroll(%s) failed: %s", cpf, rec.Body.String())
		}
	}

	path := "/v1/classes/" + cls.ID + "/self-evaluation-requests"

	t.Run("Negative delay rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, path, token, marchallObj(t, class.SelfEvaluationRequest{Days: -1}))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"days": "days must be 0 or greater"}),
		}, rec)
	})

	t.Run("Scheduled and notified", func(t *testing.T) {
		sentBefore := len(emailsvc.SentMessages)

		before := time.Now().UTC()
		req, rec := newAuthRequest(http.MethodPost, path, token, marchallObj(t, class.SelfEvaluationRequest{Days: 1, Hours: 2, Minutes: 30}))
		app.ServeHTTP(rec, req)
		after := time.Now().UTC()

		if rec.Code != http.StatusAccepted {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusAccepted, rec.Body.String())
		}
		var resp struct {
			ScheduledFor time.Time `json:"scheduled_for"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("json.Unmarshal(): %v", err)
		}

		delay := 26*time.Hour + 30*time.Minute
		if resp.ScheduledFor.Before(before.Add(delay)) || resp.ScheduledFor.After(after.Add(delay)) {
			t.Errorf("ScheduledFor = %v; want ~%v", resp.ScheduledFor, before.Add(delay))
		}

		// only Ana has an email address on file
		sent := emailsvc.SentMessages[sentBefore:]
		if len(sent) != 1 {
			t.Fatalf("len(sent) = %v; want 1", len(sent))
		}
		if to := sent[0].To[0].Address; to != "ana@test.br" {
			t.Errorf("To = %q; want %q", to, "ana@test.br")
		}
		if sent[0].TextContent == "" {
			t.Error("TextContent empty; want rendered template")
		}
	})
}
