package envfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"naasprov/internal/types"
)

func (s *UnitTestSuite) writeFile(name, content string) string {
	p := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(p, []byte(content), 0o600))
	return p
}

func (s *UnitTestSuite) TestOpenMissingFileIsEmpty() {
	st, err := Open(filepath.Join(s.dir, "absent.env"))
	s.Require().NoError(err)
	s.Empty(st.Snapshot())
	_, ok := st.Get("ANY")
	s.False(ok)
}

func (s *UnitTestSuite) TestRoundTrip() {
	ctx := context.Background()
	p := s.writeFile(".env", "# vendor credentials\nUSERNAME=alice\n\n# ids\nSERVICE_ID=svc-1\n")
	st, err := Open(p)
	s.Require().NoError(err)

	v, ok := st.Get("USERNAME")
	s.True(ok)
	s.Equal("alice", v)

	s.Require().NoError(st.Set(ctx, map[string]string{"ACCESS_TOKEN": "tok-1", "SERVICE_ID": "svc-2"}))

	v, ok = st.Get("ACCESS_TOKEN")
	s.True(ok)
	s.Equal("tok-1", v)
	v, _ = st.Get("SERVICE_ID")
	s.Equal("svc-2", v)

	b, err := os.ReadFile(p)
	s.Require().NoError(err)
	s.Equal("# vendor credentials\nUSERNAME=alice\n\n# ids\nSERVICE_ID=svc-2\nACCESS_TOKEN=tok-1\n", string(b))

	// A fresh open sees the persisted state.
	again, err := Open(p)
	s.Require().NoError(err)
	s.Equal(st.Snapshot(), again.Snapshot())
}

func (s *UnitTestSuite) TestUnrelatedLinesAreByteIdentical() {
	ctx := context.Background()
	original := "#!comment with = sign\n\n   \nexport USERNAME=alice\nCONTACT_NAME=\"Jane Doe\"\nLUMEN_IP=10.0.0.1 # office\n"
	p := s.writeFile(".env", original)
	st, err := Open(p)
	s.Require().NoError(err)

	s.Require().NoError(st.Set(ctx, map[string]string{"QUOTE_ID": "Q-100"}))
	b, err := os.ReadFile(p)
	s.Require().NoError(err)
	s.Equal(original+"QUOTE_ID=Q-100\n", string(b))

	v, _ := st.Get("CONTACT_NAME")
	s.Equal("Jane Doe", v)
	v, _ = st.Get("LUMEN_IP")
	s.Equal("10.0.0.1", v)
}

func (s *UnitTestSuite) TestValuesNeedingQuotesRoundTrip() {
	ctx := context.Background()
	p := filepath.Join(s.dir, ".env")
	st, err := Open(p)
	s.Require().NoError(err)

	s.Require().NoError(st.Set(ctx, map[string]string{"BILLING_ACCOUNT_NAME": "Acme Corp #7"}))
	v, ok := st.Get("BILLING_ACCOUNT_NAME")
	s.True(ok)
	s.Equal("Acme Corp #7", v)

	again, err := Open(p)
	s.Require().NoError(err)
	v, _ = again.Get("BILLING_ACCOUNT_NAME")
	s.Equal("Acme Corp #7", v)
}

func (s *UnitTestSuite) TestSetReplacesMultilineValue() {
	ctx := context.Background()
	p := s.writeFile(".env", "USERNAME=alice\nCERT=\"l1\nl2\"\nSECRET=s\n")
	st, err := Open(p)
	s.Require().NoError(err)
	v, _ := st.Get("CERT")
	s.Equal("l1\nl2", v)

	s.Require().NoError(st.Set(ctx, map[string]string{"CERT": "new"}))
	b, err := os.ReadFile(p)
	s.Require().NoError(err)
	s.Equal("USERNAME=alice\nCERT=new\nSECRET=s\n", string(b))
	v, _ = st.Get("SECRET")
	s.Equal("s", v)
}

func (s *UnitTestSuite) TestSetKeepsFileMode() {
	p := filepath.Join(s.dir, ".env")
	s.Require().NoError(os.WriteFile(p, []byte("A=1\n"), 0o640))
	st, err := Open(p)
	s.Require().NoError(err)
	s.Require().NoError(st.Set(context.Background(), map[string]string{"A": "2"}))
	info, err := os.Stat(p)
	s.Require().NoError(err)
	s.Equal(os.FileMode(0o640), info.Mode().Perm())

	entries, err := os.ReadDir(s.dir)
	s.Require().NoError(err)
	for _, e := range entries {
		s.False(strings.Contains(e.Name(), ".tmp-"), "temp file left behind: %s", e.Name())
	}
}

func (s *UnitTestSuite) TestReloadSeesOtherWriters() {
	ctx := context.Background()
	p := s.writeFile(".env", "ACCESS_TOKEN=a\n")
	first, err := Open(p)
	s.Require().NoError(err)
	second, err := Open(p)
	s.Require().NoError(err)

	s.Require().NoError(second.Set(ctx, map[string]string{"ACCESS_TOKEN": "b"}))
	v, _ := first.Get("ACCESS_TOKEN")
	s.Equal("a", v)

	s.Require().NoError(first.Reload(ctx))
	v, _ = first.Get("ACCESS_TOKEN")
	s.Equal("b", v)
}

func (s *UnitTestSuite) TestConcurrentWritersDoNotLoseUpdates() {
	ctx := context.Background()
	p := s.writeFile(".env", "# shared\n")
	const writers = 8

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st, err := Open(p)
			if err != nil {
				errs <- err
				return
			}
			errs <- st.Set(ctx, map[string]string{fmt.Sprintf("K%d", i): fmt.Sprintf("v%d", i)})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.NoError(err)
	}

	st, err := Open(p)
	s.Require().NoError(err)
	for i := 0; i < writers; i++ {
		v, ok := st.Get(fmt.Sprintf("K%d", i))
		s.True(ok)
		s.Equal(fmt.Sprintf("v%d", i), v)
	}
}

func (s *UnitTestSuite) TestUnwritableDirectoryIsStorageError() {
	if os.Geteuid() == 0 {
		s.T().Skip("root ignores directory permissions")
	}
	dir := filepath.Join(s.dir, "ro")
	s.Require().NoError(os.Mkdir(dir, 0o500))
	defer func() {
		_ = os.Chmod(dir, 0o700)
	}()

	_, err := Open(filepath.Join(dir, ".env"))
	s.ErrorIs(err, types.ErrStorage)
}

func (s *UnitTestSuite) TestMalformedFileIsStorageError() {
	p := s.writeFile(".env", "BROKEN=\"never closed\n")
	_, err := Open(p)
	s.ErrorIs(err, types.ErrStorage)
}
