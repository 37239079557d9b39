package follow

import (
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

func TestFollow(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Follow Module Suite")
}

// Mock Repository keyed on the edge pair
type mockFollowRepository struct {
	edges map[[2]int64]time.Time
}

func newMockFollowRepository() *mockFollowRepository {
	return &mockFollowRepository{edges: map[[2]int64]time.Time{}}
}

func (m *mockFollowRepository) Upsert(edge *Edge) error {
	key := [2]int64{edge.FollowerID, edge.FollowedID}
	if _, exists := m.edges[key]; !exists {
		m.edges[key] = edge.CreatedAt
	}
	return nil
}

func (m *mockFollowRepository) Delete(followerID, followedID int64) error {
	delete(m.edges, [2]int64{followerID, followedID})
	return nil
}

func (m *mockFollowRepository) Exists(followerID, followedID int64) (bool, error) {
	_, exists := m.edges[[2]int64{followerID, followedID}]
	return exists, nil
}

func (m *mockFollowRepository) Followers(userID int64) ([]Edge, error) {
	var out []Edge
	for key, createdAt := range m.edges {
		if key[1] == userID && key[0] != userID {
			out = append(out, Edge{FollowerID: key[0], FollowedID: key[1], CreatedAt: createdAt})
		}
	}
	return out, nil
}

func (m *mockFollowRepository) Following(userID int64) ([]Edge, error) {
	var out []Edge
	for key, createdAt := range m.edges {
		if key[0] == userID && key[1] != userID {
			out = append(out, Edge{FollowerID: key[0], FollowedID: key[1], CreatedAt: createdAt})
		}
	}
	return out, nil
}

var _ = ginkgo.Describe("FollowService", func() {
	var (
		service *Service
		repo    *mockFollowRepository
	)

	ginkgo.BeforeEach(func() {
		repo = newMockFollowRepository()
		service = NewService(repo)
	})

	ginkgo.Describe("Follow", func() {
		ginkgo.It("should create the edge", func() {
			gomega.Expect(service.Follow(1, 2)).To(gomega.Succeed())

			following, err := service.IsFollowing(1, 2)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(following).To(gomega.BeTrue())
		})

		ginkgo.It("should not be symmetric", func() {
			gomega.Expect(service.Follow(1, 2)).To(gomega.Succeed())

			reverse, err := service.IsFollowing(2, 1)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(reverse).To(gomega.BeFalse())
		})

		ginkgo.It("should be idempotent", func() {
			gomega.Expect(service.Follow(1, 2)).To(gomega.Succeed())
			gomega.Expect(service.Follow(1, 2)).To(gomega.Succeed())

			gomega.Expect(repo.edges).To(gomega.HaveLen(1))
		})
	})

	ginkgo.Describe("Unfollow", func() {
		ginkgo.It("should remove the edge", func() {
			gomega.Expect(service.Follow(1, 2)).To(gomega.Succeed())
			gomega.Expect(service.Unfollow(1, 2)).To(gomega.Succeed())

			following, err := service.IsFollowing(1, 2)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(following).To(gomega.BeFalse())
		})

		ginkgo.It("should tolerate unfollowing a non-edge", func() {
			gomega.Expect(service.Unfollow(1, 2)).To(gomega.Succeed())
		})

		ginkgo.It("should refuse to remove the self-follow edge", func() {
			gomega.Expect(service.Follow(1, 1)).To(gomega.Succeed())

			gomega.Expect(service.Unfollow(1, 1)).To(gomega.MatchError(ErrSelfUnfollow))

			stillThere, err := service.IsFollowing(1, 1)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(stillThere).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("listings", func() {
		ginkgo.BeforeEach(func() {
			// self-follows plus a small graph: 2 and 3 follow 1, 1 follows 3
			for _, id := range []int64{1, 2, 3} {
				gomega.Expect(service.Follow(id, id)).To(gomega.Succeed())
			}
			gomega.Expect(service.Follow(2, 1)).To(gomega.Succeed())
			gomega.Expect(service.Follow(3, 1)).To(gomega.Succeed())
			gomega.Expect(service.Follow(1, 3)).To(gomega.Succeed())
		})

		ginkgo.It("should list followers without the self-follow edge", func() {
			followers, err := service.Followers(1)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(followers).To(gomega.HaveLen(2))
			for _, edge := range followers {
				gomega.Expect(edge.FollowerID).ToNot(gomega.Equal(int64(1)))
			}
		})

		ginkgo.It("should list following without the self-follow edge", func() {
			following, err := service.Following(1)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(following).To(gomega.HaveLen(1))
			gomega.Expect(following[0].FollowedID).To(gomega.Equal(int64(3)))
		})
	})
})
