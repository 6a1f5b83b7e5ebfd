package rooms

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"testing"
)

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func TestManager_JoinIsIdempotent(t *testing.T) {
	m := NewManager()
	m.Join("c1", "dev")
	m.Join("c1", "dev")

	if got := len(m.MembersOf("dev")); got != 1 {
		t.Errorf("MembersOf(dev) size = %d, want 1", got)
	}
	if got := m.Rooms()["dev"]; got != 1 {
		t.Errorf("Rooms()[dev] = %d, want 1", got)
	}
}

func TestManager_JoinDefaultsRoom(t *testing.T) {
	m := NewManager()

	if got := m.Join("c1", ""); got != "general" {
		t.Errorf("Join() room = %q, want general", got)
	}
	if got := m.MembersOf("general"); !reflect.DeepEqual(got, []string{"c1"}) {
		t.Errorf("MembersOf(general) = %v, want [c1]", got)
	}
}

func TestManager_MultipleRooms(t *testing.T) {
	m := NewManager()
	m.Join("c1", "dev")
	m.Join("c1", "ops")
	m.Join("c2", "dev")

	if got := m.RoomsOf("c1"); !reflect.DeepEqual(got, []string{"dev", "ops"}) {
		t.Errorf("RoomsOf(c1) = %v, want [dev ops]", got)
	}
	if got := sorted(m.MembersOf("dev")); !reflect.DeepEqual(got, []string{"c1", "c2"}) {
		t.Errorf("MembersOf(dev) = %v, want [c1 c2]", got)
	}
}

func TestManager_LeaveAll(t *testing.T) {
	m := NewManager()
	m.Join("c1", "dev")
	m.Join("c1", "ops")
	m.Join("c2", "dev")

	left := m.LeaveAll("c1")
	if !reflect.DeepEqual(left, []string{"dev", "ops"}) {
		t.Errorf("LeaveAll() = %v, want [dev ops]", left)
	}
	if got := m.MembersOf("dev"); !reflect.DeepEqual(got, []string{"c2"}) {
		t.Errorf("MembersOf(dev) = %v, want [c2]", got)
	}
	if got := m.MembersOf("ops"); len(got) != 0 {
		t.Errorf("MembersOf(ops) = %v, want empty", got)
	}
	if _, ok := m.Rooms()["ops"]; ok {
		t.Error("empty room ops still listed")
	}

	if left := m.LeaveAll("c1"); left != nil {
		t.Errorf("second LeaveAll() = %v, want nil", left)
	}
	if left := m.LeaveAll("never-joined"); left != nil {
		t.Errorf("LeaveAll(unknown) = %v, want nil", left)
	}
}

func TestManager_MembersOfUnknownRoom(t *testing.T) {
	m := NewManager()
	got := m.MembersOf("nowhere")
	if got == nil || len(got) != 0 {
		t.Errorf("MembersOf(nowhere) = %#v, want empty non-nil slice", got)
	}
}

func TestManager_ConcurrentJoinLeave(t *testing.T) {
	m := NewManager()
	const n = 100

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := fmt.Sprintf("c%d", i)
			m.Join(conn, "general")
			m.Join(conn, fmt.Sprintf("room-%d", i%5))
		}(i)
	}
	wg.Wait()

	if got := len(m.MembersOf("general")); got != n {
		t.Fatalf("MembersOf(general) = %d, want %d", got, n)
	}

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.LeaveAll(fmt.Sprintf("c%d", i))
		}(i)
	}
	wg.Wait()

	if rooms := m.Rooms(); len(rooms) != 0 {
		t.Errorf("Rooms() = %v, want empty", rooms)
	}
}
