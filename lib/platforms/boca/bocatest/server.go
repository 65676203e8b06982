// Package bocatest runs an in-process imitation of a BOCA server for tests: it issues
// session cookies, checks the hashed login handshake, can expire sessions on demand
// and serves configured team pages and files.
package bocatest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
)

const (
	LoginTitle   = "BOCA Online Contest Administrator boca-1.5.0 - Login"
	ExpiredPage  = `<html><body><script language="javascript">alert('Session expired. You must log in again.'); document.location='../index.php';</script></body></html>`
	LoginOkPage  = `<html><body><script language="javascript">document.location='team/index.php';</script></body></html>`
	LoginBadPage = `<html><body><script language="javascript">alert('User does not exist or incorrect password.'); document.location='index.php';</script></body></html>`
	TeamIndex    = `<html><head><title>BOCA</title></head><body><table><tr><td>team1</td><td>Site 1</td><td>1h 59m left</td></tr></table></body></html>`
)

var loginPage = fmt.Sprintf(`<html><head><title>%s</title></head><body><form name="form1"><input name="name"><input name="password" type="password"></form></body></html>`, LoginTitle)

// Part is one part of a recorded multipart submission.
type Part struct {
	Name        string
	FileName    string
	ContentType string
	Content     string
}

// Submission is a recorded POST to a team page.
type Submission struct {
	Path   string
	Cookie string
	Parts  []Part
}

// Field returns the content of the first part named name.
func (s Submission) Field(name string) (Part, bool) {
	for _, p := range s.Parts {
		if p.Name == name {
			return p, true
		}
	}
	return Part{}, false
}

type session struct {
	authenticated bool
}

type Server struct {
	*httptest.Server

	Username string
	Password string

	mutex       sync.Mutex
	sessions    map[string]*session
	pages       map[string]string
	files       map[string][]byte
	filesAsHtml bool
	truncated   bool
	nextId      int

	LoginAttempts int
	FailedLogins  int
	Logouts       int
	ExpiredServed int
	FileDownloads int
	Submissions   []Submission
}

// NewServer starts a server accepting username/password, close it with Close.
func NewServer(username, password string) *Server {
	s := &Server{
		Username: username,
		Password: password,
		sessions: map[string]*session{},
		pages:    map[string]string{},
		files:    map[string][]byte{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Ip returns the host:port clients should use as the server address.
func (s *Server) Ip() string {
	parsed, err := url.Parse(s.URL)
	if err != nil {
		panic(err)
	}
	return parsed.Host
}

// SetPage serves html at /boca/<path> to authenticated sessions.
func (s *Server) SetPage(path, html string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.pages[path] = html
}

// SetFile serves contents as a forced download at /boca/<path> to authenticated sessions.
func (s *Server) SetFile(path string, contents []byte) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.files[path] = contents
}

// ServeFilesAsHtml makes file paths answer with the session expired page regardless of
// the session, imitating a persistently broken download.
func (s *Server) ServeFilesAsHtml(enabled bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.filesAsHtml = enabled
}

// TruncateFiles makes file downloads announce more bytes than they send, so clients see
// the connection drop mid-body.
func (s *Server) TruncateFiles(enabled bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.truncated = enabled
}

// ExpireSessions invalidates every session server-side.
func (s *Server) ExpireSessions() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, sess := range s.sessions {
		sess.authenticated = false
	}
}

// Sessions returns how many session ids were issued.
func (s *Server) Sessions() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return len(s.sessions)
}

func hash(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func writeHtml(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, body)
}

func (s *Server) session(r *http.Request) (string, *session) {
	cookie, err := r.Cookie("PHPSESSID")
	if err != nil {
		return "", nil
	}
	sess, ok := s.sessions[cookie.Value]
	if !ok {
		return "", nil
	}
	return cookie.Value, sess
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	path, ok := strings.CutPrefix(r.URL.Path, "/boca/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	if path == "" || path == "index.php" {
		s.handleIndex(w, r)
		return
	}
	_, isFile := s.files[path]
	if isFile || strings.HasPrefix(path, "team/") {
		s.handleTeam(w, r, path)
		return
	}
	http.NotFound(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	id, sess := s.session(r)
	if sess == nil {
		s.nextId++
		id = fmt.Sprintf("sess%04d", s.nextId)
		sess = &session{}
		s.sessions[id] = sess
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: id, Path: "/"})
		http.SetCookie(w, &http.Cookie{Name: "biscoitobocabombonera", Value: hash(id)[:16], Path: "/"})
	}

	query := r.URL.Query()
	if query.Has("name") {
		s.LoginAttempts++
		if query.Get("name") == s.Username && query.Get("password") == hash(hash(s.Password)+id) {
			sess.authenticated = true
			writeHtml(w, LoginOkPage)
			return
		}
		s.FailedLogins++
		writeHtml(w, LoginBadPage)
		return
	}

	if sess.authenticated {
		sess.authenticated = false
		s.Logouts++
	}
	writeHtml(w, loginPage)
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request, path string) {
	_, sess := s.session(r)

	contents, isFile := s.files[path]
	if isFile && s.filesAsHtml {
		s.ExpiredServed++
		writeHtml(w, ExpiredPage)
		return
	}

	if sess == nil || !sess.authenticated {
		s.ExpiredServed++
		writeHtml(w, ExpiredPage)
		return
	}

	if isFile {
		s.FileDownloads++
		w.Header().Set("Content-Type", "application/force-download")
		if s.truncated {
			w.Header().Set("Content-Length", strconv.Itoa(len(contents)+512))
		}
		w.WriteHeader(http.StatusOK)
		w.Write(contents)
		return
	}

	if r.Method == http.MethodPost {
		submission, err := readSubmission(r, path)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.Submissions = append(s.Submissions, submission)
	}

	page, ok := s.pages[path]
	if !ok {
		page = TeamIndex
	}
	writeHtml(w, page)
}

func readSubmission(r *http.Request, path string) (Submission, error) {
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return Submission{}, err
	}
	if mediaType != "multipart/form-data" {
		return Submission{}, fmt.Errorf("unexpected content type %s", mediaType)
	}

	submission := Submission{Path: path, Cookie: r.Header.Get("Cookie")}
	reader := multipart.NewReader(r.Body, params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Submission{}, err
		}
		content, err := io.ReadAll(part)
		if err != nil {
			return Submission{}, err
		}
		submission.Parts = append(submission.Parts, Part{
			Name:        part.FormName(),
			FileName:    part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
			Content:     string(content),
		})
	}
	return submission, nil
}
